package firestoredb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/edutrack/edutrack/core/user"
	"github.com/edutrack/edutrack/storage/database"
)

type userRepository struct {
	client *firestore.Client
}

func NewUserRepository(client *firestore.Client) user.Repository {
	return &userRepository{client: client}
}

func (repo *userRepository) collection() *firestore.CollectionRef {
	return repo.client.Collection(usersCollection)
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	ref := repo.collection().Doc(usr.ID) // gateway subject id is the document id
	if usr.ID == "" {
		ref = repo.collection().NewDoc()
		usr.ID = ref.ID
	}
	if _, err := ref.Set(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "writing user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	doc, err := repo.collection().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "reading user")
	}
	return userFromDoc(doc)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	iter := repo.collection().
		Where("email", "==", email).
		Where("deleted", "==", false).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "querying user by email")
	}
	usr, err := userFromDoc(doc)
	if err == user.ErrNotFound { // soft-deleted
		return user.User{}, user.ErrNotFound
	}
	return usr, err
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, opts database.ListOptions) ([]user.User, database.Page, error) {
	if filter.Scope.MatchNone {
		return []user.User{}, database.Page{}, nil
	}

	q := repo.collection().Query.Where("deleted", "==", false)
	if filter.Role != "" {
		q = q.Where("role", "==", filter.Role)
	}
	if filter.InstitutionID != "" {
		q = q.Where("institutionId", "==", filter.InstitutionID)
	}

	scope := filter.Scope
	if scope.SelfUID != "" {
		doc, err := repo.GetUserByID(ctx, scope.SelfUID)
		if err == user.ErrNotFound {
			return []user.User{}, database.Page{}, nil
		}
		if err != nil {
			return nil, database.Page{}, err
		}
		return []user.User{doc}, database.Page{}, nil
	}
	if scope.InstitutionID != "" {
		q = q.Where("institutionId", "==", scope.InstitutionID)
	}

	q = q.OrderBy("createdAt", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
	if opts.Cursor != "" {
		createdAt, id, err := database.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, database.Page{}, err
		}
		q = q.StartAfter(createdAt, id)
	}
	if opts.Paginated() {
		q = q.Limit(opts.PageSize)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	users := make([]user.User, 0, opts.PageSize)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, database.Page{}, errors.Wrap(err, "querying users")
		}
		usr, err := userFromDoc(doc)
		if err != nil {
			return nil, database.Page{}, err
		}
		users = append(users, usr)
	}

	var page database.Page
	if opts.Paginated() && len(users) == opts.PageSize {
		last := users[len(users)-1]
		page.NextCursor = database.EncodeCursor(last.CreatedAt, last.ID)
	}
	return users, page, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	ref := repo.collection().Doc(usr.ID)
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "reading user")
	}
	if _, err := ref.Set(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "writing user")
	}
	return usr, nil
}

func (repo *userRepository) SoftDeleteUser(ctx context.Context, id string) error {
	_, err := repo.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: "deleted", Value: true},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if isNotFound(err) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, "soft-deleting user")
}

func userFromDoc(doc *firestore.DocumentSnapshot) (user.User, error) {
	var usr user.User
	if err := doc.DataTo(&usr); err != nil {
		return user.User{}, errors.Wrap(err, "decoding user")
	}
	if usr.Deleted {
		return user.User{}, user.ErrNotFound
	}
	usr.ID = doc.Ref.ID
	return usr, nil
}

package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/user"
	"github.com/edutrack/edutrack/storage/database"
)

type userRepository struct {
	db *userTable
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.users}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.table[id]; ok && !usr.Deleted {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email && !usr.Deleted {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, opts database.ListOptions) ([]user.User, database.Page, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.Scope.MatchNone {
		return []user.User{}, database.Page{}, nil
	}

	users := make([]user.User, 0, len(repo.db.table))
	for _, usr := range repo.db.table {
		if usr.Deleted || !userMatches(*usr, filter) {
			continue
		}
		users = append(users, *usr)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})

	if !opts.Paginated() {
		return users, database.Page{}, nil
	}

	start := 0
	if opts.Cursor != "" {
		createdAt, id, err := database.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, database.Page{}, err
		}
		for start < len(users) {
			u := users[start]
			if u.CreatedAt.After(createdAt) || (u.CreatedAt.Equal(createdAt) && u.ID > id) {
				break
			}
			start++
		}
	}

	end := start + opts.PageSize
	if end >= len(users) {
		return users[start:], database.Page{}, nil
	}
	last := users[end-1]
	return users[start:end], database.Page{NextCursor: database.EncodeCursor(last.CreatedAt, last.ID)}, nil
}

func userMatches(usr user.User, filter user.QueryFilter) bool {
	if filter.Role != "" && usr.Role != access.Role(filter.Role) {
		return false
	}
	if filter.InstitutionID != "" && usr.InstitutionID != filter.InstitutionID {
		return false
	}

	scope := filter.Scope
	if scope.SelfUID != "" && usr.ID != scope.SelfUID {
		return false
	}
	if scope.InstitutionID != "" && usr.InstitutionID != scope.InstitutionID {
		return false
	}
	return true
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok || orig.Deleted {
		return user.User{}, user.ErrNotFound
	}
	usr.CreatedAt = orig.CreatedAt
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) SoftDeleteUser(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.table[id]
	if !ok || usr.Deleted {
		return user.ErrNotFound
	}
	usr.Deleted = true
	return nil
}

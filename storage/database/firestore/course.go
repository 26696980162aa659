package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/storage/database"
)

type courseRepository struct {
	client *firestore.Client
}

func NewCourseRepository(client *firestore.Client) course.Repository {
	return &courseRepository{client: client}
}

func (repo *courseRepository) collection() *firestore.CollectionRef {
	return repo.client.Collection(coursesCollection)
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	ref := repo.collection().NewDoc()
	crs.ID = ref.ID
	if _, err := ref.Set(ctx, crs); err != nil {
		return course.Course{}, errors.Wrap(err, "writing course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	doc, err := repo.collection().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "reading course")
	}
	return courseFromDoc(doc)
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, opts database.ListOptions) ([]course.Course, database.Page, error) {
	if filter.Scope.MatchNone {
		return []course.Course{}, database.Page{}, nil
	}

	q := repo.collection().Query
	scope := filter.Scope
	switch {
	case scope.PublishedOnly:
		// drafts never match under a published-only scope, whatever the filter asks
		if filter.IsPublished != nil && !*filter.IsPublished {
			return []course.Course{}, database.Page{}, nil
		}
		q = q.Where("isPublished", "==", true)
	case filter.IsPublished != nil:
		q = q.Where("isPublished", "==", *filter.IsPublished)
	}
	if scope.TeacherID != "" {
		q = q.Where("teacherId", "==", scope.TeacherID)
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

	courses := make([]course.Course, 0, opts.PageSize)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, database.Page{}, errors.Wrap(err, "querying courses")
		}
		crs, err := courseFromDoc(doc)
		if err != nil {
			return nil, database.Page{}, err
		}
		courses = append(courses, crs)
	}

	var page database.Page
	if opts.Paginated() && len(courses) == opts.PageSize {
		last := courses[len(courses)-1]
		page.NextCursor = database.EncodeCursor(last.CreatedAt, last.ID)
	}
	return courses, page, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	// ownership fields are immutable
	_, err := repo.collection().Doc(crs.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: crs.Title},
		{Path: "description", Value: crs.Description},
		{Path: "isPublished", Value: crs.IsPublished},
		{Path: "updatedAt", Value: crs.UpdatedAt},
	})
	if isNotFound(err) {
		return course.Course{}, course.ErrNotFound
	}
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	_, err := repo.collection().Doc(id).Delete(ctx, firestore.Exists)
	if isNotFound(err) {
		return course.ErrNotFound
	}
	return errors.Wrap(err, "deleting course")
}

func courseFromDoc(doc *firestore.DocumentSnapshot) (course.Course, error) {
	var crs course.Course
	if err := doc.DataTo(&crs); err != nil {
		return course.Course{}, errors.Wrap(err, "decoding course")
	}
	crs.ID = doc.Ref.ID
	return crs, nil
}

package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/storage/database"
)

type courseRepository struct {
	db *courseTable
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.courses}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if crs.ID == "" {
		crs.ID = uuid.NewString()
	}
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, opts database.ListOptions) ([]course.Course, database.Page, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.Scope.MatchNone {
		return []course.Course{}, database.Page{}, nil
	}

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		if !courseMatches(*crs, filter) {
			continue
		}
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool {
		if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].CreatedAt.Before(courses[j].CreatedAt)
		}
		return courses[i].ID < courses[j].ID
	})

	if !opts.Paginated() {
		return courses, database.Page{}, nil
	}

	start := 0
	if opts.Cursor != "" {
		createdAt, id, err := database.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, database.Page{}, err
		}
		for start < len(courses) {
			c := courses[start]
			if c.CreatedAt.After(createdAt) || (c.CreatedAt.Equal(createdAt) && c.ID > id) {
				break
			}
			start++
		}
	}

	end := start + opts.PageSize
	if end >= len(courses) {
		return courses[start:], database.Page{}, nil
	}
	last := courses[end-1]
	return courses[start:end], database.Page{NextCursor: database.EncodeCursor(last.CreatedAt, last.ID)}, nil
}

func courseMatches(crs course.Course, filter course.QueryFilter) bool {
	if filter.IsPublished != nil && crs.IsPublished != *filter.IsPublished {
		return false
	}

	scope := filter.Scope
	if scope.TeacherID != "" && crs.TeacherID != scope.TeacherID {
		return false
	}
	if scope.InstitutionID != "" && crs.InstitutionID != scope.InstitutionID {
		return false
	}
	if scope.PublishedOnly && !crs.IsPublished {
		return false
	}
	return true
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}

	// ownership fields are immutable
	orig.Title = crs.Title
	orig.Description = crs.Description
	orig.IsPublished = crs.IsPublished
	orig.UpdatedAt = crs.UpdatedAt
	return *orig, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

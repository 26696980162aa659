package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/storage/database"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollments}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if enr.ID == "" {
		enr.ID = uuid.NewString()
	}
	repo.db.table[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if enr, ok := repo.db.table[id]; ok {
		return *enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) FilterEnrollments(ctx context.Context, filter enrollment.QueryFilter, opts database.ListOptions) ([]enrollment.Enrollment, database.Page, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.Scope.MatchNone {
		return []enrollment.Enrollment{}, database.Page{}, nil
	}

	enrs := make([]enrollment.Enrollment, 0, len(repo.db.table))
	for _, enr := range repo.db.table {
		if !enrollmentMatches(*enr, filter) {
			continue
		}
		enrs = append(enrs, *enr)
	}
	sort.Slice(enrs, func(i, j int) bool {
		if !enrs[i].EnrolledAt.Equal(enrs[j].EnrolledAt) {
			return enrs[i].EnrolledAt.Before(enrs[j].EnrolledAt)
		}
		return enrs[i].ID < enrs[j].ID
	})

	if !opts.Paginated() {
		return enrs, database.Page{}, nil
	}

	start := 0
	if opts.Cursor != "" {
		enrolledAt, id, err := database.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, database.Page{}, err
		}
		for start < len(enrs) {
			e := enrs[start]
			if e.EnrolledAt.After(enrolledAt) || (e.EnrolledAt.Equal(enrolledAt) && e.ID > id) {
				break
			}
			start++
		}
	}

	end := start + opts.PageSize
	if end >= len(enrs) {
		return enrs[start:], database.Page{}, nil
	}
	last := enrs[end-1]
	return enrs[start:end], database.Page{NextCursor: database.EncodeCursor(last.EnrolledAt, last.ID)}, nil
}

func enrollmentMatches(enr enrollment.Enrollment, filter enrollment.QueryFilter) bool {
	if !filter.IncludeRemoved && enr.Status != enrollment.StatusActive {
		return false
	}
	if filter.CourseID != "" && enr.CourseID != filter.CourseID {
		return false
	}
	if filter.StudentID != "" && enr.StudentID != filter.StudentID {
		return false
	}

	scope := filter.Scope
	if scope.TeacherID != "" && enr.TeacherID != scope.TeacherID {
		return false
	}
	if scope.StudentID != "" && enr.StudentID != scope.StudentID {
		return false
	}
	if scope.InstitutionID != "" && enr.InstitutionID != scope.InstitutionID {
		return false
	}
	return true
}

func (repo *enrollmentRepository) SetEnrollmentStatus(ctx context.Context, id, status string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enr, ok := repo.db.table[id]
	if !ok {
		return enrollment.ErrNotFound
	}
	enr.Status = status
	return nil
}

func (repo *enrollmentRepository) SetEnrollmentProgress(ctx context.Context, id string, progress int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enr, ok := repo.db.table[id]
	if !ok {
		return enrollment.ErrNotFound
	}
	enr.Progress = progress
	return nil
}

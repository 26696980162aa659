package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/storage/database"
)

var ErrNotFound = errors.New("enrollment not found")

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		// FilterEnrollments applies AND operation on available QueryFilter
		// fields and the caller's scope.
		FilterEnrollments(ctx context.Context, filter QueryFilter, opts database.ListOptions) ([]Enrollment, database.Page, error)
		SetEnrollmentStatus(ctx context.Context, id, status string) error
		SetEnrollmentProgress(ctx context.Context, id string, progress int) error
	}

	Service struct {
		conf *core.Config
		repo Repository
	}
)

func NewService(conf *core.Config, repo Repository) *Service {
	return &Service{conf: conf, repo: repo}
}

// Enroll creates an active enrollment on behalf of a student. The caller is
// stamped as the owning teacher, admins included.
func (svc *Service) Enroll(ctx context.Context, ident access.Identity, ne NewEnrollment) (Enrollment, error) {
	if err := access.CanEnroll(ident); err != nil {
		return Enrollment{}, err
	}

	enr := Enrollment{
		CourseID:      ne.CourseID,
		StudentID:     ne.StudentID,
		TeacherID:     ident.UID,
		InstitutionID: ident.InstitutionID,
		Progress:      0,
		Status:        StatusActive,
		EnrolledAt:    time.Now().UTC(),
	}
	return svc.repo.CreateEnrollment(ctx, enr)
}

// Filter lists active enrollments visible to the caller.
func (svc *Service) Filter(ctx context.Context, ident access.Identity, filter QueryFilter, opts database.ListOptions) ([]Enrollment, database.Page, error) {
	filter.Scope = access.EnrollmentScope(ident)
	return svc.repo.FilterEnrollments(ctx, filter, svc.clamp(opts))
}

func (svc *Service) GetByID(ctx context.Context, ident access.Identity, id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if err = access.CanReadEnrollment(ident, enr.Ref()); err != nil {
		return Enrollment{}, err
	}
	return enr, nil
}

// Unenroll transitions the enrollment to removed. The transition is one-way;
// unenrolling an already removed enrollment is a no-op.
func (svc *Service) Unenroll(ctx context.Context, ident access.Identity, id string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if err = access.CanMutateEnrollment(ident, enr.Ref()); err != nil {
		return Enrollment{}, err
	}
	if enr.Status == StatusRemoved {
		return enr, nil
	}

	if err = svc.repo.SetEnrollmentStatus(ctx, id, StatusRemoved); err != nil {
		return Enrollment{}, errors.Wrap(err, "setting status")
	}
	enr.Status = StatusRemoved
	return enr, nil
}

// UpdateProgress mutates progress. Only the exact owning teacher may do this;
// the read and the write are separate store round trips, concurrent
// conflicting writes are not detected.
func (svc *Service) UpdateProgress(ctx context.Context, ident access.Identity, id string, progress int) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if err = access.CanUpdateProgress(ident, enr.Ref()); err != nil {
		return Enrollment{}, err
	}

	if err = svc.repo.SetEnrollmentProgress(ctx, id, progress); err != nil {
		return Enrollment{}, errors.Wrap(err, "setting progress")
	}
	enr.Progress = progress
	return enr, nil
}

// StudentEnrollments lists a student's active enrollments, further narrowed
// by the caller's scope (a teacher only sees enrollments they own).
func (svc *Service) StudentEnrollments(ctx context.Context, ident access.Identity, studentID string, opts database.ListOptions) ([]Enrollment, database.Page, error) {
	if err := access.CanReadStudentEnrollments(ident, studentID); err != nil {
		return nil, database.Page{}, err
	}

	filter := QueryFilter{StudentID: studentID, Scope: access.EnrollmentScope(ident)}
	return svc.repo.FilterEnrollments(ctx, filter, svc.clamp(opts))
}

func (svc *Service) clamp(opts database.ListOptions) database.ListOptions {
	if opts.PageSize <= 0 {
		opts.PageSize = svc.conf.DefaultPageSize
	} else if opts.PageSize > svc.conf.MaxPageSize {
		opts.PageSize = svc.conf.MaxPageSize
	}
	return opts
}

package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/storage/database"
)

var ErrNotFound = errors.New("course not found")

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses applies AND operation on available QueryFilter fields
		// and the caller's scope.
		FilterCourses(ctx context.Context, filter QueryFilter, opts database.ListOptions) ([]Course, database.Page, error)
		// UpdateCourse persists the mutable fields (title, description,
		// isPublished, updatedAt); ownership fields are never rewritten.
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	Service struct {
		conf        *core.Config
		repo        Repository
		enrollments enrollment.Repository
	}
)

func NewService(conf *core.Config, repo Repository, enrollments enrollment.Repository) *Service {
	return &Service{conf: conf, repo: repo, enrollments: enrollments}
}

// Create stamps the caller as owner; new courses always start unpublished.
func (svc *Service) Create(ctx context.Context, ident access.Identity, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Title:         nc.Title,
		Description:   nc.Description,
		TeacherID:     ident.UID,
		InstitutionID: ident.InstitutionID,
		IsPublished:   false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

// Filter lists courses visible to the caller.
func (svc *Service) Filter(ctx context.Context, ident access.Identity, filter QueryFilter, opts database.ListOptions) ([]Course, database.Page, error) {
	filter.Scope = access.CourseScope(ident)
	return svc.repo.FilterCourses(ctx, filter, svc.clamp(opts))
}

func (svc *Service) GetByID(ctx context.Context, ident access.Identity, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = access.CanReadCourse(ident, crs.Ref()); err != nil {
		return Course{}, err
	}
	return crs, nil
}

// Update merges the set fields; TeacherID and InstitutionID are immutable.
func (svc *Service) Update(ctx context.Context, ident access.Identity, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = access.CanMutateCourse(ident, crs.Ref()); err != nil {
		return Course{}, err
	}

	if uc.Title != "" {
		crs.Title = uc.Title
	}
	if uc.Description != "" {
		crs.Description = uc.Description
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, ident access.Identity, id string) error {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return err
	}
	if err = access.CanMutateCourse(ident, crs.Ref()); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// TogglePublish flips the published flag.
func (svc *Service) TogglePublish(ctx context.Context, ident access.Identity, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err = access.CanMutateCourse(ident, crs.Ref()); err != nil {
		return Course{}, err
	}

	crs.IsPublished = !crs.IsPublished
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

// Stats aggregates the course's active enrollments. Owner-only: even admins
// are denied, matching the narrower per-teacher reporting rule.
func (svc *Service) Stats(ctx context.Context, ident access.Identity, id string) (Stats, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	if err = access.CanViewCourseStats(ident, crs.Ref()); err != nil {
		return Stats{}, err
	}

	enrs, _, err := svc.enrollments.FilterEnrollments(ctx, enrollment.QueryFilter{CourseID: id}, database.ListOptions{})
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying enrollments")
	}

	stats := Stats{Enrolled: len(enrs)}
	if len(enrs) > 0 {
		var sum int
		for _, e := range enrs {
			sum += e.Progress
		}
		stats.AverageProgress = float64(sum) / float64(len(enrs))
	}
	return stats, nil
}

func (svc *Service) clamp(opts database.ListOptions) database.ListOptions {
	if opts.PageSize <= 0 {
		opts.PageSize = svc.conf.DefaultPageSize
	} else if opts.PageSize > svc.conf.MaxPageSize {
		opts.PageSize = svc.conf.MaxPageSize
	}
	return opts
}

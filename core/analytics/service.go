// Package analytics computes unordered aggregates (counts, averages) over
// role-scoped course and enrollment sets.
package analytics

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/storage/database"
)

type (
	InstitutionReport struct {
		TotalCourses     int     `json:"totalCourses"`
		TotalEnrollments int     `json:"totalEnrollments"`
		AvgProgress      float64 `json:"avgProgress"`
	}

	TeacherPerformance struct {
		TeacherID        string  `json:"teacherId"`
		TotalEnrollments int     `json:"totalEnrollments"`
		AvgProgress      float64 `json:"avgProgress"`
	}

	CourseEngagement struct {
		CourseID      string  `json:"courseId"`
		TotalEnrolled int     `json:"totalEnrolled"`
		AvgProgress   float64 `json:"avgProgress"`
	}

	Service struct {
		courses     course.Repository
		enrollments enrollment.Repository
	}
)

func NewService(courses course.Repository, enrollments enrollment.Repository) *Service {
	return &Service{courses: courses, enrollments: enrollments}
}

// Institution aggregates courses and enrollments, tenant-scoped for
// InstitutionAdmin, platform-wide for SuperAdmin. The two queries have no
// ordering dependency and are fanned out concurrently.
func (svc *Service) Institution(ctx context.Context, ident access.Identity) (InstitutionReport, error) {
	scope := access.AdminScope(ident)

	var (
		courses []course.Course
		enrs    []enrollment.Enrollment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, _, err = svc.courses.FilterCourses(gctx, course.QueryFilter{Scope: scope}, database.ListOptions{})
		return errors.Wrap(err, "querying courses")
	})
	g.Go(func() error {
		var err error
		enrs, _, err = svc.enrollments.FilterEnrollments(gctx, enrollment.QueryFilter{Scope: scope}, database.ListOptions{})
		return errors.Wrap(err, "querying enrollments")
	})
	if err := g.Wait(); err != nil {
		return InstitutionReport{}, err
	}

	report := InstitutionReport{
		TotalCourses:     len(courses),
		TotalEnrollments: len(enrs),
	}
	if len(enrs) > 0 {
		var sum int
		for _, e := range enrs {
			sum += e.Progress
		}
		report.AvgProgress = float64(sum) / float64(len(enrs))
	}
	return report, nil
}

// TeacherPerformance groups scoped enrollments by owning teacher. Results are
// sorted by teacher id for stable output.
func (svc *Service) TeacherPerformance(ctx context.Context, ident access.Identity) ([]TeacherPerformance, error) {
	scope := access.AdminScope(ident)

	enrs, _, err := svc.enrollments.FilterEnrollments(ctx, enrollment.QueryFilter{Scope: scope}, database.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	type acc struct {
		total int
		sum   int
	}
	stats := make(map[string]*acc)
	for _, e := range enrs {
		a, ok := stats[e.TeacherID]
		if !ok {
			a = &acc{}
			stats[e.TeacherID] = a
		}
		a.total++
		a.sum += e.Progress
	}

	results := make([]TeacherPerformance, 0, len(stats))
	for teacherID, a := range stats {
		results = append(results, TeacherPerformance{
			TeacherID:        teacherID,
			TotalEnrollments: a.total,
			AvgProgress:      float64(a.sum) / float64(a.total),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].TeacherID < results[j].TeacherID })
	return results, nil
}

// StudentReport lists a student's active enrollments for reporting, guarded
// like the per-student enrollment listing (a parent only for their child).
func (svc *Service) StudentReport(ctx context.Context, ident access.Identity, studentID string) ([]enrollment.Enrollment, error) {
	if err := access.CanReadStudentEnrollments(ident, studentID); err != nil {
		return nil, err
	}

	filter := enrollment.QueryFilter{StudentID: studentID, Scope: access.EnrollmentScope(ident)}
	enrs, _, err := svc.enrollments.FilterEnrollments(ctx, filter, database.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrs, nil
}

// CourseEngagement aggregates a course's active enrollments. The average of
// an empty set is 0, never NaN.
func (svc *Service) CourseEngagement(ctx context.Context, ident access.Identity, courseID string) (CourseEngagement, error) {
	enrs, _, err := svc.enrollments.FilterEnrollments(ctx, enrollment.QueryFilter{CourseID: courseID}, database.ListOptions{})
	if err != nil {
		return CourseEngagement{}, errors.Wrap(err, "querying enrollments")
	}

	eng := CourseEngagement{CourseID: courseID, TotalEnrolled: len(enrs)}
	if len(enrs) > 0 {
		var sum int
		for _, e := range enrs {
			sum += e.Progress
		}
		eng.AvgProgress = float64(sum) / float64(len(enrs))
	}
	return eng, nil
}

package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/storage/database"
	inmemdb "github.com/edutrack/edutrack/storage/database/inmem"
)

var (
	teacher  = access.Identity{UID: "t1", Role: access.RoleTeacher, InstitutionID: "inst1"}
	teacherB = access.Identity{UID: "t2", Role: access.RoleTeacher, InstitutionID: "inst1"}
	student  = access.Identity{UID: "s1", Role: access.RoleStudent, InstitutionID: "inst1"}
	admin    = access.Identity{UID: "ia1", Role: access.RoleInstitutionAdmin, InstitutionID: "inst1"}
)

func newTestService() (*course.Service, *enrollment.Service) {
	conf := &core.Config{TestMode: true, DefaultPageSize: 20, MaxPageSize: 100}
	db := inmemdb.Open()
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	crsSvc := course.NewService(conf, inmemdb.NewCourseRepository(db), enrRepo)
	enrSvc := enrollment.NewService(conf, enrRepo)
	return crsSvc, enrSvc
}

func TestService_Create_stampsOwnership(t *testing.T) {
	svc, _ := newTestService()

	crs, err := svc.Create(context.Background(), teacher, course.NewCourse{Title: "Algebra"})
	require.NoError(t, err)
	assert.NotEmpty(t, crs.ID)
	assert.Equal(t, "t1", crs.TeacherID)
	assert.Equal(t, "inst1", crs.InstitutionID)
	assert.False(t, crs.IsPublished, "new courses start unpublished")
}

func TestService_Update_ownershipImmutable(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	crs, err := svc.Create(ctx, teacher, course.NewCourse{Title: "Algebra"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, teacher, crs.ID, course.UpdateCourse{Title: "Algebra II"})
	require.NoError(t, err)
	assert.Equal(t, "Algebra II", updated.Title)
	assert.Equal(t, "t1", updated.TeacherID)

	// a non-owner teacher is denied
	_, err = svc.Update(ctx, teacherB, crs.ID, course.UpdateCourse{Title: "Hijack"})
	assert.Equal(t, access.ErrForbidden, err)
}

func TestService_TogglePublish(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	crs, err := svc.Create(ctx, teacher, course.NewCourse{Title: "Algebra"})
	require.NoError(t, err)

	// draft courses are invisible to students
	_, err = svc.GetByID(ctx, student, crs.ID)
	assert.Equal(t, access.ErrForbidden, err)

	crs, err = svc.TogglePublish(ctx, teacher, crs.ID)
	require.NoError(t, err)
	assert.True(t, crs.IsPublished)

	got, err := svc.GetByID(ctx, student, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, crs.ID, got.ID)

	crs, err = svc.TogglePublish(ctx, teacher, crs.ID)
	require.NoError(t, err)
	assert.False(t, crs.IsPublished)
}

func TestService_Filter_scoped(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	mine, err := svc.Create(ctx, teacher, course.NewCourse{Title: "Mine"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, teacherB, course.NewCourse{Title: "Theirs"})
	require.NoError(t, err)

	// teachers see their own courses, drafts included
	courses, _, err := svc.Filter(ctx, teacher, course.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, mine.ID, courses[0].ID)

	// students see only published courses
	courses, _, err = svc.Filter(ctx, student, course.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, courses, 0)

	// tenant admins see everything in their institution
	courses, _, err = svc.Filter(ctx, admin, course.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, courses, 2)
}

func TestService_Stats(t *testing.T) {
	svc, enrSvc := newTestService()
	ctx := context.Background()

	crs, err := svc.Create(ctx, teacher, course.NewCourse{Title: "Algebra"})
	require.NoError(t, err)

	// empty set averages to 0
	stats, err := svc.Stats(ctx, teacher, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, course.Stats{Enrolled: 0, AverageProgress: 0}, stats)

	enr1, err := enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: crs.ID, StudentID: "s1"})
	require.NoError(t, err)
	_, err = enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: crs.ID, StudentID: "s2"})
	require.NoError(t, err)
	_, err = enrSvc.UpdateProgress(ctx, teacher, enr1.ID, 50)
	require.NoError(t, err)

	stats, err = svc.Stats(ctx, teacher, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Enrolled)
	assert.Equal(t, 25.0, stats.AverageProgress)

	// owner-only: admins are denied too
	_, err = svc.Stats(ctx, admin, crs.ID)
	assert.Equal(t, access.ErrForbidden, err)
}

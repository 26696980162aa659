package analytics_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/analytics"
	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/core/enrollment"
	inmemdb "github.com/edutrack/edutrack/storage/database/inmem"
)

var (
	teacher    = access.Identity{UID: "t1", Role: access.RoleTeacher, InstitutionID: "inst1"}
	teacherB   = access.Identity{UID: "t2", Role: access.RoleTeacher, InstitutionID: "inst2"}
	instAdmin  = access.Identity{UID: "ia1", Role: access.RoleInstitutionAdmin, InstitutionID: "inst1"}
	superAdmin = access.Identity{UID: "sa1", Role: access.RoleSuperAdmin}
)

type testEnv struct {
	svc    *analytics.Service
	crsSvc *course.Service
	enrSvc *enrollment.Service
}

func newTestEnv() *testEnv {
	conf := &core.Config{TestMode: true, DefaultPageSize: 20, MaxPageSize: 100}
	db := inmemdb.Open()
	crsRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	return &testEnv{
		svc:    analytics.NewService(crsRepo, enrRepo),
		crsSvc: course.NewService(conf, crsRepo, enrRepo),
		enrSvc: enrollment.NewService(conf, enrRepo),
	}
}

func TestService_Institution(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// empty platform: zeroes, never NaN
	report, err := env.svc.Institution(ctx, superAdmin)
	require.NoError(t, err)
	assert.Equal(t, analytics.InstitutionReport{}, report)

	crs1, err := env.crsSvc.Create(ctx, teacher, course.NewCourse{Title: "Algebra"})
	require.NoError(t, err)
	crs2, err := env.crsSvc.Create(ctx, teacherB, course.NewCourse{Title: "Biology"})
	require.NoError(t, err)

	e1, err := env.enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: crs1.ID, StudentID: "s1"})
	require.NoError(t, err)
	_, err = env.enrSvc.UpdateProgress(ctx, teacher, e1.ID, 80)
	require.NoError(t, err)
	_, err = env.enrSvc.Enroll(ctx, teacherB, enrollment.NewEnrollment{CourseID: crs2.ID, StudentID: "s2"})
	require.NoError(t, err)

	// platform-wide for SuperAdmin
	report, err = env.svc.Institution(ctx, superAdmin)
	require.NoError(t, err)
	assert.Equal(t, analytics.InstitutionReport{TotalCourses: 2, TotalEnrollments: 2, AvgProgress: 40}, report)

	// tenant-scoped for InstitutionAdmin
	report, err = env.svc.Institution(ctx, instAdmin)
	require.NoError(t, err)
	assert.Equal(t, analytics.InstitutionReport{TotalCourses: 1, TotalEnrollments: 1, AvgProgress: 80}, report)

	// an admin with no tenant claim aggregates nothing, not everything
	tenantless := access.Identity{UID: "ia9", Role: access.RoleInstitutionAdmin}
	report, err = env.svc.Institution(ctx, tenantless)
	require.NoError(t, err)
	assert.Equal(t, analytics.InstitutionReport{}, report)
}

func TestService_TeacherPerformance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	e1, err := env.enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	_, err = env.enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s2"})
	require.NoError(t, err)
	_, err = env.enrSvc.Enroll(ctx, teacherB, enrollment.NewEnrollment{CourseID: "c2", StudentID: "s3"})
	require.NoError(t, err)
	_, err = env.enrSvc.UpdateProgress(ctx, teacher, e1.ID, 100)
	require.NoError(t, err)

	perf, err := env.svc.TeacherPerformance(ctx, superAdmin)
	require.NoError(t, err)
	// grouped by teacher, sorted by teacher id
	assert.Equal(t, []analytics.TeacherPerformance{
		{TeacherID: "t1", TotalEnrollments: 2, AvgProgress: 50},
		{TeacherID: "t2", TotalEnrollments: 1, AvgProgress: 0},
	}, perf)

	// tenant admin only sees their teachers
	perf, err = env.svc.TeacherPerformance(ctx, instAdmin)
	require.NoError(t, err)
	assert.Equal(t, []analytics.TeacherPerformance{
		{TeacherID: "t1", TotalEnrollments: 2, AvgProgress: 50},
	}, perf)
}

func TestService_StudentReport(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)

	parent := access.Identity{UID: "p1", Role: access.RoleParent, ChildID: "s1"}
	enrs, err := env.svc.StudentReport(ctx, parent, "s1")
	require.NoError(t, err)
	assert.Len(t, enrs, 1)

	_, err = env.svc.StudentReport(ctx, parent, "s2")
	assert.Equal(t, access.ErrForbidden, err)
}

func TestService_CourseEngagement(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// empty course: zero average, never NaN
	eng, err := env.svc.CourseEngagement(ctx, superAdmin, "c1")
	require.NoError(t, err)
	assert.Equal(t, analytics.CourseEngagement{CourseID: "c1"}, eng)

	e1, err := env.enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	_, err = env.enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s2"})
	require.NoError(t, err)
	_, err = env.enrSvc.UpdateProgress(ctx, teacher, e1.ID, 30)
	require.NoError(t, err)

	// removed enrollments are excluded from the aggregate
	removed, err := env.enrSvc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s3"})
	require.NoError(t, err)
	_, err = env.enrSvc.Unenroll(ctx, teacher, removed.ID)
	require.NoError(t, err)

	eng, err = env.svc.CourseEngagement(ctx, superAdmin, "c1")
	require.NoError(t, err)
	assert.Equal(t, analytics.CourseEngagement{CourseID: "c1", TotalEnrolled: 2, AvgProgress: 15}, eng)
}

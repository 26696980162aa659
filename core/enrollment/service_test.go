package enrollment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/storage/database"
	inmemdb "github.com/edutrack/edutrack/storage/database/inmem"
)

var (
	teacher    = access.Identity{UID: "t1", Role: access.RoleTeacher, InstitutionID: "inst1"}
	teacherB   = access.Identity{UID: "t2", Role: access.RoleTeacher, InstitutionID: "inst1"}
	student    = access.Identity{UID: "s1", Role: access.RoleStudent, InstitutionID: "inst1"}
	parent     = access.Identity{UID: "p1", Role: access.RoleParent, InstitutionID: "inst1", ChildID: "s1"}
	instAdmin  = access.Identity{UID: "ia1", Role: access.RoleInstitutionAdmin, InstitutionID: "inst1"}
	superAdmin = access.Identity{UID: "sa1", Role: access.RoleSuperAdmin}
)

func newTestService() *enrollment.Service {
	conf := &core.Config{TestMode: true, DefaultPageSize: 20, MaxPageSize: 100}
	return enrollment.NewService(conf, inmemdb.NewEnrollmentRepository(inmemdb.Open()))
}

func TestService_Enroll(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	enr, err := svc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	assert.NotEmpty(t, enr.ID)
	assert.Equal(t, "t1", enr.TeacherID, "the enrolling caller owns the enrollment")
	assert.Equal(t, "inst1", enr.InstitutionID)
	assert.Equal(t, 0, enr.Progress)
	assert.Equal(t, enrollment.StatusActive, enr.Status)

	// admins enrolling are stamped as the owner too
	enr, err = svc.Enroll(ctx, instAdmin, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s2"})
	require.NoError(t, err)
	assert.Equal(t, "ia1", enr.TeacherID)

	// students cannot enroll anyone
	_, err = svc.Enroll(ctx, student, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	assert.Equal(t, access.ErrForbidden, err)
}

func TestService_UpdateProgress_owningTeacherOnly(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	enr, err := svc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)

	got, err := svc.UpdateProgress(ctx, teacher, enr.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Progress)

	// nobody else, admins included
	for _, id := range []access.Identity{teacherB, student, parent, instAdmin, superAdmin} {
		_, err = svc.UpdateProgress(ctx, id, enr.ID, 70)
		assert.Equalf(t, access.ErrForbidden, err, "role %s", id.Role)
	}

	// absent enrollment is NotFound, not Forbidden
	_, err = svc.UpdateProgress(ctx, teacher, "missing", 10)
	assert.Equal(t, enrollment.ErrNotFound, err)
}

func TestService_Unenroll_oneWay(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	enr, err := svc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)

	got, err := svc.Unenroll(ctx, teacher, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusRemoved, got.Status)

	// removed enrollments disappear from default listings
	enrs, _, err := svc.Filter(ctx, teacher, enrollment.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, enrs, 0)

	// but remain readable by id
	got, err = svc.GetByID(ctx, teacher, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusRemoved, got.Status)

	// unenrolling again is a no-op
	got, err = svc.Unenroll(ctx, teacher, enr.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusRemoved, got.Status)
}

func TestService_Filter_scoped(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, teacherB, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s2"})
	require.NoError(t, err)

	// teacher sees only their own
	enrs, _, err := svc.Filter(ctx, teacher, enrollment.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	require.Len(t, enrs, 1)
	assert.Equal(t, "t1", enrs[0].TeacherID)

	// student sees only themself
	enrs, _, err = svc.Filter(ctx, student, enrollment.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	require.Len(t, enrs, 1)
	assert.Equal(t, "s1", enrs[0].StudentID)

	// parent sees their child
	enrs, _, err = svc.Filter(ctx, parent, enrollment.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	require.Len(t, enrs, 1)
	assert.Equal(t, "s1", enrs[0].StudentID)

	// parent without a linked child sees nothing
	enrs, _, err = svc.Filter(ctx, access.Identity{UID: "p2", Role: access.RoleParent}, enrollment.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, enrs, 0)

	// super admin sees everything
	enrs, _, err = svc.Filter(ctx, superAdmin, enrollment.QueryFilter{}, database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, enrs, 2)
}

func TestService_StudentEnrollments(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Enroll(ctx, teacher, enrollment.NewEnrollment{CourseID: "c1", StudentID: "s1"})
	require.NoError(t, err)
	_, err = svc.Enroll(ctx, teacherB, enrollment.NewEnrollment{CourseID: "c2", StudentID: "s1"})
	require.NoError(t, err)

	// the parent of s1 sees all of s1's enrollments
	enrs, _, err := svc.StudentEnrollments(ctx, parent, "s1", database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, enrs, 2)

	// but is denied another student's
	_, _, err = svc.StudentEnrollments(ctx, parent, "s2", database.ListOptions{})
	assert.Equal(t, access.ErrForbidden, err)

	// a teacher only sees the enrollments they own
	enrs, _, err = svc.StudentEnrollments(ctx, teacher, "s1", database.ListOptions{})
	require.NoError(t, err)
	require.Len(t, enrs, 1)
	assert.Equal(t, "t1", enrs[0].TeacherID)

	// the student sees their own
	enrs, _, err = svc.StudentEnrollments(ctx, student, "s1", database.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, enrs, 2)
}

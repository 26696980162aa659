// Package access implements the role-scoped authorization policy applied by
// every resource service: given a verified caller and a target resource's
// ownership fields, decide allow/deny; given just the caller, derive the
// filter predicates a listing query must apply.
package access

import "github.com/pkg/errors"

// ErrForbidden is returned by every denied policy decision.
var ErrForbidden = errors.New("permission denied")

type (
	// CourseRef carries the ownership fields of a course relevant to policy
	// decisions, decoupled from the course package.
	CourseRef struct {
		TeacherID     string
		InstitutionID string
		IsPublished   bool
	}

	// EnrollmentRef carries the ownership fields of an enrollment.
	EnrollmentRef struct {
		TeacherID     string
		StudentID     string
		InstitutionID string
	}

	// UserRef carries the ownership fields of a user document.
	UserRef struct {
		UID           string
		InstitutionID string
	}
)

// adminOverride reports whether the caller's role grants access to a resource
// in the given tenant: SuperAdmin everywhere, InstitutionAdmin within their
// own institution only.
func adminOverride(id Identity, institutionID string) bool {
	switch id.Role {
	case RoleSuperAdmin:
		return true
	case RoleInstitutionAdmin:
		return id.InstitutionID != "" && id.InstitutionID == institutionID
	}
	return false
}

// CanReadCourse allows anyone to read a published course; unpublished courses
// are visible only to the owning teacher and admins.
func CanReadCourse(id Identity, c CourseRef) error {
	if c.IsPublished {
		return nil
	}
	if id.UID == c.TeacherID || adminOverride(id, c.InstitutionID) {
		return nil
	}
	return ErrForbidden
}

// CanMutateCourse allows the owning teacher and admins.
func CanMutateCourse(id Identity, c CourseRef) error {
	if id.UID == c.TeacherID || adminOverride(id, c.InstitutionID) {
		return nil
	}
	return ErrForbidden
}

// CanViewCourseStats allows the owning teacher only.
func CanViewCourseStats(id Identity, c CourseRef) error {
	if id.UID == c.TeacherID {
		return nil
	}
	return ErrForbidden
}

// CanEnroll allows teachers and admins to enroll students.
func CanEnroll(id Identity) error {
	switch id.Role {
	case RoleTeacher, RoleInstitutionAdmin, RoleSuperAdmin:
		return nil
	}
	return ErrForbidden
}

// CanReadEnrollment allows the enrolled student, their parent, the owning
// teacher and admins.
func CanReadEnrollment(id Identity, e EnrollmentRef) error {
	if id.UID == e.StudentID || id.UID == e.TeacherID {
		return nil
	}
	if id.Role == RoleParent && id.ChildID != "" && id.ChildID == e.StudentID {
		return nil
	}
	if adminOverride(id, e.InstitutionID) {
		return nil
	}
	return ErrForbidden
}

// CanMutateEnrollment allows the owning teacher and admins.
func CanMutateEnrollment(id Identity, e EnrollmentRef) error {
	if id.Role == RoleTeacher && id.UID == e.TeacherID {
		return nil
	}
	if adminOverride(id, e.InstitutionID) {
		return nil
	}
	return ErrForbidden
}

// CanUpdateProgress allows the exact owning teacher only. This rule is
// deliberately narrower than CanMutateEnrollment: InstitutionAdmin and
// SuperAdmin may not touch progress.
func CanUpdateProgress(id Identity, e EnrollmentRef) error {
	if id.Role == RoleTeacher && id.UID == e.TeacherID {
		return nil
	}
	return ErrForbidden
}

// CanReadStudentEnrollments guards the per-student enrollment listing:
// the student themself, their parent, teachers (results are scoped to their
// own enrollments) and admins.
func CanReadStudentEnrollments(id Identity, studentID string) error {
	switch id.Role {
	case RoleSuperAdmin, RoleInstitutionAdmin, RoleTeacher:
		return nil
	case RoleStudent:
		if id.UID == studentID {
			return nil
		}
	case RoleParent:
		if id.ChildID != "" && id.ChildID == studentID {
			return nil
		}
	}
	return ErrForbidden
}

// CanReadUser allows self and admins.
func CanReadUser(id Identity, u UserRef) error {
	if id.UID == u.UID || adminOverride(id, u.InstitutionID) {
		return nil
	}
	return ErrForbidden
}

// CanMutateUser allows self and admins. Role/tenant changes are additionally
// restricted to admins by the user service.
func CanMutateUser(id Identity, u UserRef) error {
	return CanReadUser(id, u)
}

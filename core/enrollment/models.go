package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
)

// Status values. The only legal transition is active -> removed.
const (
	StatusActive  = "active"
	StatusRemoved = "removed"
)

// Enrollment links a student to a course. TeacherID is the enrolling caller
// and owns progress updates. Referential integrity of CourseID/StudentID is
// assumed, not verified.
type Enrollment struct {
	ID            string    `json:"id" firestore:"-"`
	CourseID      string    `json:"courseId" firestore:"courseId"`
	StudentID     string    `json:"studentId" firestore:"studentId"`
	TeacherID     string    `json:"teacherId" firestore:"teacherId"`
	InstitutionID string    `json:"institutionId" firestore:"institutionId"`
	Progress      int       `json:"progress" firestore:"progress"` // 0..100
	Status        string    `json:"status" firestore:"status"`
	EnrolledAt    time.Time `json:"enrolledAt" firestore:"enrolledAt"` // UTC
}

func (e Enrollment) Ref() access.EnrollmentRef {
	return access.EnrollmentRef{TeacherID: e.TeacherID, StudentID: e.StudentID, InstitutionID: e.InstitutionID}
}

// NewEnrollment contains information needed to enroll a student.
type NewEnrollment struct {
	CourseID  string `json:"courseId" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.CourseID = core.CleanString(ne.CourseID)
	ne.StudentID = core.CleanString(ne.StudentID)
	return validate.Struct(ne)
}

// ProgressUpdate carries a progress mutation; bounds are enforced here, at
// the boundary, not by the store.
type ProgressUpdate struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

func (pu ProgressUpdate) Validate(validate *validator.Validate) error {
	return validate.Struct(pu)
}

// QueryFilter applies AND semantics on its non-zero fields, on top of the
// caller's listing scope. Only active enrollments are returned unless
// IncludeRemoved is set.
type QueryFilter struct {
	CourseID       string `query:"course_id"`
	StudentID      string `query:"-"`
	IncludeRemoved bool   `query:"-"`

	Scope access.ListScope `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.CourseID = core.CleanString(qf.CourseID)
}

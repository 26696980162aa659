package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
)

// Course is owned by the creating teacher. TeacherID and InstitutionID are
// stamped at creation and immutable afterwards; unpublished courses are
// visible only to their owner and admins.
type Course struct {
	ID            string    `json:"id" firestore:"-"`
	Title         string    `json:"title" firestore:"title"`
	Description   string    `json:"description,omitempty" firestore:"description,omitempty"`
	TeacherID     string    `json:"teacherId" firestore:"teacherId"`
	InstitutionID string    `json:"institutionId" firestore:"institutionId"`
	IsPublished   bool      `json:"isPublished" firestore:"isPublished"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"` // UTC
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt"` // UTC
}

func (c Course) Ref() access.CourseRef {
	return access.CourseRef{TeacherID: c.TeacherID, InstitutionID: c.InstitutionID, IsPublished: c.IsPublished}
}

// NewCourse contains information needed to create a Course.
type NewCourse struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCourse defines what may be modified on an existing Course. Ownership
// fields are not part of it. Empty fields are left unchanged.
type UpdateCourse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	return validate.Struct(uc)
}

// Stats are unordered aggregates over the course's active enrollments.
type Stats struct {
	Enrolled        int     `json:"enrolled"`
	AverageProgress float64 `json:"averageProgress"`
}

// QueryFilter applies AND semantics on its non-zero fields, on top of the
// caller's listing scope.
type QueryFilter struct {
	IsPublished *bool `query:"is_published"`

	Scope access.ListScope `query:"-"`
}

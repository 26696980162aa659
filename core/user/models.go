package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edutrack/edutrack/core"
	"github.com/edutrack/edutrack/core/access"
)

// User is the stored profile of a platform account. ID equals the Identity
// Gateway subject id. The role/tenant fields mirror the gateway claims; the
// claims are the source of truth and this document is refreshed on write.
type User struct {
	ID            string      `json:"id" firestore:"-"`
	Email         string      `json:"email" firestore:"email"`
	Name          string      `json:"name,omitempty" firestore:"name,omitempty"`
	Role          access.Role `json:"role" firestore:"role"`
	InstitutionID string      `json:"institutionId,omitempty" firestore:"institutionId,omitempty"`
	ChildID       string      `json:"childId,omitempty" firestore:"childId,omitempty"`
	Deleted       bool        `json:"-" firestore:"deleted"`
	CreatedAt     time.Time   `json:"createdAt" firestore:"createdAt"` // UTC
	UpdatedAt     time.Time   `json:"updatedAt" firestore:"updatedAt"` // UTC
}

func (u User) Ref() access.UserRef {
	return access.UserRef{UID: u.ID, InstitutionID: u.InstitutionID}
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Name          string `json:"name"`
	Role          string `json:"role" validate:"required,role"`
	InstitutionID string `json:"institutionId"`
	ChildID       string `json:"childId"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Role = core.CleanString(nu.Role)
	nu.InstitutionID = core.CleanString(nu.InstitutionID)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return requireTenant(nu.Role, nu.InstitutionID)
}

// InviteUser contains information needed to invite a User without a password;
// the account is set up via an emailed link.
type InviteUser struct {
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name"`
	Role          string `json:"role" validate:"required,role"`
	InstitutionID string `json:"institutionId"`
	ChildID       string `json:"childId"`
}

func (iu *InviteUser) Validate(validate *validator.Validate) error {
	iu.Email = core.CleanString(iu.Email, true /* lower */)
	iu.Name = core.CleanString(iu.Name)
	iu.Role = core.CleanString(iu.Role)
	iu.InstitutionID = core.CleanString(iu.InstitutionID)

	if err := validate.Struct(iu); err != nil {
		return err
	}
	return requireTenant(iu.Role, iu.InstitutionID)
}

// requireTenant rejects tenant-scoped roles with no institution.
func requireTenant(role, institutionID string) error {
	if access.Role(role) != access.RoleSuperAdmin && institutionID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "institutionId", Error: "this field is required"})
	}
	return nil
}

// UpdateUser defines what information may be provided to modify an existing
// User. Empty fields are left unchanged.
type UpdateUser struct {
	Email         string `json:"email" validate:"omitempty,email"`
	Name          string `json:"name"`
	Role          string `json:"role" validate:"omitempty,role"`
	InstitutionID string `json:"institutionId"`
	ChildID       string `json:"childId"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Name = core.CleanString(uu.Name)
	uu.Role = core.CleanString(uu.Role)
	uu.InstitutionID = core.CleanString(uu.InstitutionID)
	return validate.Struct(uu)
}

// ChangesClaims reports whether applying the update alters the role/tenant
// attributes mirrored in the Identity Gateway.
func (uu UpdateUser) ChangesClaims() bool {
	return uu.Role != "" || uu.InstitutionID != "" || uu.ChildID != ""
}

// QueryFilter applies AND semantics on its non-zero fields, on top of the
// caller's listing scope.
type QueryFilter struct {
	Role          string `query:"role"`
	InstitutionID string `query:"institution_id"`

	Scope access.ListScope `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Role = core.CleanString(qf.Role)
	qf.InstitutionID = core.CleanString(qf.InstitutionID)
}

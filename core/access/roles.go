package access

import "github.com/pkg/errors"

// Role is the closed set of platform roles. It is the single source of truth:
// every role check in the codebase goes through this type.
type Role string

const (
	RoleSuperAdmin       Role = "SuperAdmin"
	RoleInstitutionAdmin Role = "InstitutionAdmin"
	RoleTeacher          Role = "Teacher"
	RoleStudent          Role = "Student"
	RoleParent           Role = "Parent"
)

var AllRoles = []Role{RoleSuperAdmin, RoleInstitutionAdmin, RoleTeacher, RoleStudent, RoleParent}

var errUnknownRole = errors.New("unknown role")

// ParseRole maps a wire string onto the Role enum.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", errors.Wrap(errUnknownRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleInstitutionAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role carries an admin override
// (platform-wide for SuperAdmin, tenant-wide for InstitutionAdmin).
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleInstitutionAdmin
}

// Claims is the role/tenant attribute set mirrored into the Identity Gateway.
// The gateway copy is the source of truth; User documents are refreshed from
// it on write.
type Claims struct {
	Role          Role   `json:"role"`
	InstitutionID string `json:"institutionId,omitempty"`
	ChildID       string `json:"childId,omitempty"`
}

// Identity is a verified caller: the subject and claims asserted by the
// Identity Gateway for the request's bearer credential.
type Identity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	InstitutionID string `json:"institutionId,omitempty"`
	ChildID       string `json:"childId,omitempty"`
}

func (id Identity) IsAdmin() bool { return id.Role.IsAdmin() }

func (id Identity) Claims() Claims {
	return Claims{Role: id.Role, InstitutionID: id.InstitutionID, ChildID: id.ChildID}
}

package access

// ListScope is the set of filter predicates a listing query must apply for a
// caller. Repositories translate non-zero fields into conjunctive equality
// filters on the store.
type ListScope struct {
	TeacherID     string
	StudentID     string
	InstitutionID string
	SelfUID       string
	PublishedOnly bool

	// MatchNone marks a scope that can never match (a Parent with no linked
	// child); repositories short-circuit to an empty result.
	MatchNone bool
}

// Unrestricted reports whether the scope applies no predicate at all.
func (s ListScope) Unrestricted() bool { return s == ListScope{} }

// CourseScope derives the course listing predicates for a caller.
func CourseScope(id Identity) ListScope {
	switch id.Role {
	case RoleSuperAdmin:
		return ListScope{}
	case RoleInstitutionAdmin:
		return tenantScope(id)
	case RoleTeacher:
		return ListScope{TeacherID: id.UID}
	default: // Student, Parent
		return ListScope{PublishedOnly: true}
	}
}

// EnrollmentScope derives the enrollment listing predicates for a caller.
func EnrollmentScope(id Identity) ListScope {
	switch id.Role {
	case RoleSuperAdmin:
		return ListScope{}
	case RoleInstitutionAdmin:
		return tenantScope(id)
	case RoleTeacher:
		return ListScope{TeacherID: id.UID}
	case RoleStudent:
		return ListScope{StudentID: id.UID}
	default: // Parent
		if id.ChildID == "" {
			return ListScope{MatchNone: true}
		}
		return ListScope{StudentID: id.ChildID}
	}
}

// UserScope derives the user listing predicates for a caller.
func UserScope(id Identity) ListScope {
	switch id.Role {
	case RoleSuperAdmin:
		return ListScope{}
	case RoleInstitutionAdmin:
		return tenantScope(id)
	default:
		return ListScope{SelfUID: id.UID}
	}
}

// AdminScope derives the reporting predicates for an admin caller:
// tenant-scoped for InstitutionAdmin, unrestricted for SuperAdmin.
func AdminScope(id Identity) ListScope {
	if id.Role == RoleInstitutionAdmin {
		return tenantScope(id)
	}
	return ListScope{}
}

// tenantScope confines an InstitutionAdmin to their institution. An admin
// whose claims carry no tenant can list nothing; an empty InstitutionID must
// not degrade into an unrestricted scope.
func tenantScope(id Identity) ListScope {
	if id.InstitutionID == "" {
		return ListScope{MatchNone: true}
	}
	return ListScope{InstitutionID: id.InstitutionID}
}

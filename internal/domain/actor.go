package domain

// Role is the authenticated caller's role, established by the auth gateway
// upstream of this service.
type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
	// RoleSystem is used by internal adapters (form handler, payment webhook)
	// that complete requirements as a side effect of their own validation.
	RoleSystem Role = "system"
)

// Actor identifies who performed an action. There is no ambient current-user
// state; every mutating call receives its actor explicitly.
type Actor struct {
	ID   string
	Role Role
}

// CanToggle reports whether the actor may directly flip a requirement of the
// given kind. Staff and system actors may toggle anything; clients only the
// self-service kinds.
func (a Actor) CanToggle(kind RequirementKind) bool {
	switch a.Role {
	case RoleStaff, RoleSystem:
		return true
	case RoleClient:
		return kind.ClientToggleable()
	default:
		return false
	}
}

package models

// Role is the fixed ordered set of portal roles.
type Role string

// Role constants, ordered from lowest to highest privilege.
const (
	// RoleEmployee is the lowest-privilege role.
	RoleEmployee Role = "EMPLOYEE"
	// RoleDistributor marks distributor accounts.
	RoleDistributor Role = "DISTRIBUTOR"
	// RoleExportManager marks export-manager accounts.
	RoleExportManager Role = "EXPORT_MANAGER"
	// RoleAdmin marks administrator accounts.
	RoleAdmin Role = "ADMIN"
	// RoleSuperAdmin is the highest-privilege role.
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// roleRanks is the single source of truth for role ordering.
var roleRanks = map[Role]int{
	RoleEmployee:      1,
	RoleDistributor:   2,
	RoleExportManager: 3,
	RoleAdmin:         4,
	RoleSuperAdmin:    5,
}

// ParseRole returns the role matching the value, or false when unknown.
func ParseRole(value string) (Role, bool) {
	role := Role(value)
	_, ok := roleRanks[role]
	return role, ok
}

// Valid reports whether the role is one of the fixed set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the numeric position of the role in the hierarchy.
// Unknown roles rank below every valid role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// CanManage reports whether the role strictly outranks the target.
// It is the only role comparison in the codebase; unlock, role
// assignment, and management checks all go through it.
func (r Role) CanManage(target Role) bool {
	return r.Rank() > target.Rank()
}

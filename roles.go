package identity

// UserRole is the user's role
type UserRole = string

const (
	// RoleMember is a regular member (i.e. view, collaborate)
	RoleMember UserRole = "member"
	// RoleProjectAdmin administers the projects they own
	RoleProjectAdmin UserRole = "project_admin"
	// RoleAdmin is a global administrator
	RoleAdmin UserRole = "admin"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleMember, RoleProjectAdmin, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

// AvailableRoles returns all predefined roles in hierarchical order
func AvailableRoles() []UserRole {
	return []UserRole{
		RoleMember,
		RoleProjectAdmin,
		RoleAdmin,
	}
}

// RoleIsAtLeast checks if role meets the minimum required level
func RoleIsAtLeast(role, minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleMember:       0,
		RoleProjectAdmin: 1,
		RoleAdmin:        2,
	}

	currentLevel, exists := roleHierarchy[role]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

package entity

// Role represents the type of role a user can have in the storefront.
type Role string

const (
	// RoleUser indicates an ordinary user.
	RoleUser Role = "user"
	// RoleAdmin indicates an administrator.
	RoleAdmin Role = "admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleFromString decodes a stored role, falling back to RoleUser for unknown values.
func RoleFromString(s string) Role {
	role := Role(s)
	if !role.IsValid() {
		return RoleUser
	}

	return role
}

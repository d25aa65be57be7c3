package domain

// Role is the caller's role as asserted by the request boundary.
type Role string

const (
	RoleAgent   Role = "agent"
	RoleManager Role = "manager"
)

// ParseRole converts caller input into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAgent, RoleManager:
		return r, nil
	default:
		return "", ErrInvalidRole
	}
}

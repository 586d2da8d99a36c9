package domain

// Role is the coarse-grained role assigned by the identity provider.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller of a service operation. The core trusts
// it as supplied by the identity provider and performs no verification.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

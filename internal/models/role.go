package models

// Principal is the caller's verified identifier as issued by the identity
// provider. The authority derives the caller's role from it; the client never
// infers a role from any other field.
type Principal string

func (p Principal) IsAnonymous() bool {
	return p == ""
}

func (p Principal) String() string {
	return string(p)
}

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

package models

// Role is the closed set of roles a user can hold. Anything outside the set
// is coerced to RoleUser at the single ingestion point (ParseRole), downstream
// code can rely on the value being one of the three constants.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleUser    Role = "User"
	RoleManager Role = "Manager"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleManager:
		return true
	}
	return false
}

// ParseRole maps arbitrary input onto the closed role set. Unknown values fall
// back to RoleUser instead of being rejected.
func ParseRole(s string) Role {
	r := Role(s)
	if !r.Valid() {
		return RoleUser
	}
	return r
}

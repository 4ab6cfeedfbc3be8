package authclient

// UserRole is the user's role as reported by the backend
type UserRole = string

const (
	// RoleCustomer is a regular account (i.e. browse, purchase)
	RoleCustomer UserRole = "customer"
	// RoleAdmin is a backoffice account
	RoleAdmin UserRole = "admin"
)

// DefaultRegistrationRole is the role the client requests for new accounts.
// The backend may still assign a different one; the profile is authoritative.
const DefaultRegistrationRole = RoleCustomer

var roleRank = map[UserRole]int{
	RoleCustomer: 1,
	RoleAdmin:    2,
}

// ParseRole validates a role string coming off the wire
func ParseRole(role string) (UserRole, bool) {
	if _, ok := roleRank[role]; ok {
		return role, true
	}
	return "", false
}

// RoleIsAtLeast reports whether role meets the given minimum. Unknown roles
// never qualify, so screens gated on admin fail closed.
func RoleIsAtLeast(role, min UserRole) bool {
	r, ok := roleRank[role]
	if !ok {
		return false
	}
	m, ok := roleRank[min]
	if !ok {
		return false
	}
	return r >= m
}

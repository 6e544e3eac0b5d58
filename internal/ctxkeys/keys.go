// Package ctxkeys defines typed context keys shared between middleware and handlers.
// This avoids import cycles: both middleware and handlers import this package,
// but neither imports the other for context key types.
package ctxkeys

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID   Key = "userID"
	UserRole Key = "userRole"
)

// ValidRoles lists all valid role strings.
// "user" is a regular tenant, "accountant" can read client data,
// "admin" manages the opportunity catalog.
var ValidRoles = map[string]bool{
	"user":        true,
	"accountant":  true,
	"admin":       true,
	"super_admin": true,
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"user":        1,
	"accountant":  2,
	"admin":       3,
	"super_admin": 4,
}

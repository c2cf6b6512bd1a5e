package auth

import "errors"

// Role is an administrative tier.
type Role string

const (
	// RoleAdmin manages settings, devices and rooms, and reads everything.
	RoleAdmin Role = "admin"

	// RoleSecretary manages rooms and reads devices, events and telemetry.
	// Settings and device tokens are off limits.
	RoleSecretary Role = "secretary"

	// RoleViewer reads events, telemetry and rooms only.
	RoleViewer Role = "viewer"
)

// ValidRoles lists every role a token may carry.
var ValidRoles = []Role{RoleAdmin, RoleSecretary, RoleViewer}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Principal is an authenticated administrative caller.
type Principal struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
}

// Sentinel errors for auth operations.
var (
	ErrTokenInvalid = errors.New("auth: invalid token")
	ErrUnknownRole  = errors.New("auth: unknown role")
	ErrForbidden    = errors.New("auth: insufficient permissions")
)

package auth

import "fmt"

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermSettingsRead    Permission = "settings:read"
	PermSettingsManage  Permission = "settings:manage"
	PermDeviceRead      Permission = "device:read"
	PermDeviceManage    Permission = "device:manage"
	PermRoomRead        Permission = "room:read"
	PermRoomManage      Permission = "room:manage"
	PermAccessLogRead   Permission = "access_log:read"
	PermTelemetryRead   Permission = "telemetry:read"
	PermHardwareProfile Permission = "hardware_profile:read"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermRoomRead,
		PermAccessLogRead,
		PermTelemetryRead,
	},
	RoleSecretary: {
		PermDeviceRead,
		PermRoomRead,
		PermRoomManage,
		PermAccessLogRead,
		PermTelemetryRead,
		PermHardwareProfile,
	},
	RoleAdmin: {
		PermSettingsRead,
		PermSettingsManage,
		PermDeviceRead,
		PermDeviceManage,
		PermRoomRead,
		PermRoomManage,
		PermAccessLogRead,
		PermTelemetryRead,
		PermHardwareProfile,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}

// Checker enforces permissions on principals.
type Checker struct{}

// NewChecker creates a Checker over the static role table.
func NewChecker() *Checker {
	return &Checker{}
}

// Require returns nil when p holds perm. Unknown roles are rejected with
// ErrUnknownRole, missing permissions with ErrForbidden.
func (c *Checker) Require(p Principal, perm Permission) error {
	if !IsValidRole(p.Role) {
		return fmt.Errorf("%w: %q", ErrUnknownRole, p.Role)
	}
	if !HasPermission(p.Role, perm) {
		return fmt.Errorf("%w: %s lacks %s", ErrForbidden, p.Role, perm)
	}
	return nil
}

package rbac

import (
	"strings"

	"golang.org/x/text/cases"
)

// Capability is one of the built-in permissions gating the administration screens.
type Capability uint8

// Built-in capabilities. Each resource exposes index, create, edit and delete.
const (
	UsersIndex Capability = iota + 1
	UsersCreate
	UsersEdit
	UsersDelete
	RolesIndex
	RolesCreate
	RolesEdit
	RolesDelete
	PermissionsIndex
	PermissionsCreate
	PermissionsEdit
	PermissionsDelete
)

const (
	// DefaultGuard is the guard name stamped on permissions and roles.
	DefaultGuard = "web"
	// SuperAdminRole is the seeded role holding every permission.
	SuperAdminRole = "super-admin"
)

var capabilityNames = [...]string{
	UsersIndex:        "users index",
	UsersCreate:       "users create",
	UsersEdit:         "users edit",
	UsersDelete:       "users delete",
	RolesIndex:        "roles index",
	RolesCreate:       "roles create",
	RolesEdit:         "roles edit",
	RolesDelete:       "roles delete",
	PermissionsIndex:  "permissions index",
	PermissionsCreate: "permissions create",
	PermissionsEdit:   "permissions edit",
	PermissionsDelete: "permissions delete",
}

// String returns the stored permission name, e.g. "roles edit".
func (c Capability) String() string {
	if !c.Valid() {
		return ""
	}
	return capabilityNames[c]
}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	return c >= UsersIndex && c <= PermissionsDelete
}

// Resource returns the first word of the name: "users", "roles" or "permissions".
func (c Capability) Resource() string {
	resource, _, _ := strings.Cut(c.String(), " ")
	return resource
}

// Action returns the second word of the name.
func (c Capability) Action() string {
	_, action, _ := strings.Cut(c.String(), " ")
	return action
}

// AllCapabilities lists every built-in capability in declaration order.
func AllCapabilities() []Capability {
	caps := make([]Capability, 0, len(capabilityNames)-1)
	for c := UsersIndex; c <= PermissionsDelete; c++ {
		caps = append(caps, c)
	}
	return caps
}

// ParseCapability resolves a permission name to its capability. Matching ignores
// case and collapses runs of whitespace.
func ParseCapability(name string) (Capability, bool) {
	key := NormalizeName(name)
	for c := UsersIndex; c <= PermissionsDelete; c++ {
		if capabilityNames[c] == key {
			return c, true
		}
	}
	return 0, false
}

// NormalizeName folds a permission name for comparison.
func NormalizeName(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

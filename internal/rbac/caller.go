package rbac

import (
	"fmt"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// Caller is the authenticated actor of a request together with the permission
// names granted through its roles, resolved once per request.
type Caller struct {
	UserID  int64
	granted map[string]string
}

// NewCaller builds a Caller from the effective permission names of userID.
func NewCaller(userID int64, names []string) Caller {
	granted := make(map[string]string, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		granted[NormalizeName(name)] = name
	}
	return Caller{UserID: userID, granted: granted}
}

// Has reports whether the caller holds the named permission.
func (c Caller) Has(name string) bool {
	_, ok := c.granted[NormalizeName(name)]
	return ok
}

// Can reports whether the caller holds capability.
func (c Caller) Can(capability Capability) bool {
	return capability.Valid() && c.Has(capability.String())
}

// Require returns an error wrapping shared.ErrForbidden unless the caller holds capability.
func (c Caller) Require(capability Capability) error {
	if c.Can(capability) {
		return nil
	}
	return fmt.Errorf("%w: missing %q", shared.ErrForbidden, capability.String())
}

// Permissions returns the granted names as a name to true map.
func (c Caller) Permissions() map[string]bool {
	out := make(map[string]bool, len(c.granted))
	for _, name := range c.granted {
		out[name] = true
	}
	return out
}

package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCapabilitiesCoverEveryResourceAction(t *testing.T) {
	caps := AllCapabilities()
	require.Len(t, caps, 12)

	seen := map[string]bool{}
	for _, c := range caps {
		seen[c.String()] = true
	}
	for _, resource := range []string{"users", "roles", "permissions"} {
		for _, action := range []string{"index", "create", "edit", "delete"} {
			assert.True(t, seen[resource+" "+action], "%s %s", resource, action)
		}
	}
}

func TestParseCapability(t *testing.T) {
	c, ok := ParseCapability("  Roles   EDIT ")
	require.True(t, ok)
	assert.Equal(t, RolesEdit, c)
	assert.Equal(t, "roles", c.Resource())
	assert.Equal(t, "edit", c.Action())

	_, ok = ParseCapability("reports export")
	assert.False(t, ok)
}

func TestZeroCapabilityIsInvalid(t *testing.T) {
	var c Capability
	assert.False(t, c.Valid())
	assert.Empty(t, c.String())
}

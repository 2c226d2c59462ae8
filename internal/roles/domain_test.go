package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupPermissionsSplitsOnFirstWord(t *testing.T) {
	groups := GroupPermissions([]PermissionRef{
		{ID: 1, Name: "permissions create"},
		{ID: 2, Name: "permissions index"},
		{ID: 3, Name: "standalone"},
		{ID: 4, Name: "users bulk export"},
	})

	assert.Equal(t, []PermissionGroup{
		{Resource: "permissions", Permissions: []PermissionRef{{ID: 1, Name: "permissions create"}, {ID: 2, Name: "permissions index"}}},
		{Resource: "standalone", Permissions: []PermissionRef{{ID: 3, Name: "standalone"}}},
		{Resource: "users", Permissions: []PermissionRef{{ID: 4, Name: "users bulk export"}}},
	}, groups)
}

func TestGroupPermissionsEmpty(t *testing.T) {
	assert.Empty(t, GroupPermissions(nil))
	assert.NotNil(t, GroupPermissions(nil))
}

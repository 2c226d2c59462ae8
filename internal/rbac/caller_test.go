package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

func TestCallerHasAndRequire(t *testing.T) {
	caller := NewCaller(7, []string{"users index", "roles index"})

	assert.True(t, caller.Has("users index"))
	assert.True(t, caller.Has("Users Index"))
	assert.False(t, caller.Has("users delete"))
	assert.True(t, caller.Can(RolesIndex))

	err := caller.Require(UsersDelete)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.NoError(t, caller.Require(UsersIndex))
}

func TestCallerWithoutRolesHoldsNothing(t *testing.T) {
	caller := NewCaller(3, nil)
	for _, c := range AllCapabilities() {
		assert.False(t, caller.Can(c), c.String())
	}
	assert.Empty(t, caller.Permissions())
}

func TestCallerPermissionsMap(t *testing.T) {
	caller := NewCaller(1, []string{"users index", "users create"})
	assert.Equal(t, map[string]bool{"users index": true, "users create": true}, caller.Permissions())
}

type stubRepo struct {
	names map[int64][]string
	err   error
}

func (s stubRepo) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	names, ok := s.names[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return names, nil
}

func TestServiceResolve(t *testing.T) {
	svc := NewService(stubRepo{names: map[int64][]string{1: {"roles edit"}}})

	caller, err := svc.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), caller.UserID)
	assert.True(t, caller.Can(RolesEdit))

	_, err = svc.Resolve(context.Background(), 2)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	failing := NewService(stubRepo{err: errors.New("db down")})
	_, err = failing.EffectivePermissions(context.Background(), 1)
	assert.Error(t, err)
}

package seed_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-admin/internal/auth"
	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/seed"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
	"github.com/odyssey-erp/odyssey-admin/internal/testing/memstore"
)

var admin = seed.Admin{Name: "Administrator", Email: "admin@example.com", Password: "password"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSeedsAllCapabilities(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	res, err := seed.Run(ctx, store.Seed(), admin, quietLogger())
	require.NoError(t, err)
	assert.Len(t, res.PermissionIDs, len(rbac.AllCapabilities()))
	assert.NotZero(t, res.RoleID)
	assert.NotZero(t, res.UserID)

	caller, err := rbac.NewService(store.RBAC()).Resolve(ctx, res.UserID)
	require.NoError(t, err)
	for _, capability := range rbac.AllCapabilities() {
		assert.True(t, caller.Can(capability), capability.String())
	}
	assert.Len(t, caller.Permissions(), 12)

	roles, err := store.Users().AllRoles(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, rbac.SuperAdminRole, roles[0].Name)

	hash, err := store.Users().PasswordHash(ctx, res.UserID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(admin.Password)))
}

func TestRunTwiceFailsWithoutChanges(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	_, err := seed.Run(ctx, store.Seed(), admin, quietLogger())
	require.NoError(t, err)
	before := store.Snapshot()

	_, err = seed.Run(ctx, store.Seed(), admin, quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDuplicate))
	assert.Equal(t, before, store.Snapshot())
}

func TestRunRollsBackOnLateFailure(t *testing.T) {
	store := memstore.New()
	boom := errors.New("boom")
	store.FailOn("AssignRole", boom)

	_, err := seed.Run(context.Background(), store.Seed(), admin, nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, memstore.New().Snapshot(), store.Snapshot())
}

func TestRunStoresAdminEmailNormalized(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	mixed := seed.Admin{Name: "Administrator", Email: "  Admin@Example.COM ", Password: "password"}

	res, err := seed.Run(ctx, store.Seed(), mixed, quietLogger())
	require.NoError(t, err)

	user, err := auth.NewService(store.Auth()).Authenticate(ctx, "admin@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, res.UserID, user.ID)
	assert.Equal(t, "admin@example.com", user.Email)
}

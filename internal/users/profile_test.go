package users_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
	"github.com/odyssey-erp/odyssey-admin/internal/users"
)

func TestProfileUpdateClearsVerificationOnNewEmail(t *testing.T) {
	f := newFixture(t, "editor")
	ctx := context.Background()
	u, err := f.users.Create(ctx, f.admin, createInput("Eve Editor", "eve@example.com", "editor"))
	require.NoError(t, err)
	f.store.VerifyEmail(u.ID)

	profile := users.NewProfileService(f.store.Users())
	updated, err := profile.Update(ctx, u.ID, users.ProfileInput{Name: "Eve E.", Email: "eve@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Eve E.", updated.Name)
	assert.NotNil(t, updated.EmailVerifiedAt)

	updated, err = profile.Update(ctx, u.ID, users.ProfileInput{Name: "Eve E.", Email: "eve@other.example.com"})
	require.NoError(t, err)
	assert.Nil(t, updated.EmailVerifiedAt)
	assert.Equal(t, []string{"editor"}, roleNames(updated), "roles untouched")
}

func TestProfileDeleteRequiresCurrentPassword(t *testing.T) {
	f := newFixture(t, "editor")
	ctx := context.Background()
	u, err := f.users.Create(ctx, f.admin, createInput("Eve Editor", "eve@example.com", "editor"))
	require.NoError(t, err)

	profile := users.NewProfileService(f.store.Users())
	err = profile.Delete(ctx, u.ID, users.DeleteAccountInput{Password: "wrong"})
	assert.Equal(t, "The password is incorrect.", shared.FieldErrors(err)["password"])

	require.NoError(t, profile.Delete(ctx, u.ID, users.DeleteAccountInput{Password: "pass1234"}))
	_, err = profile.Show(ctx, u.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// Package seed bootstraps an empty database with the built-in permissions,
// the super-admin role and a first administrator.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
)

// Store is the persistence needed by Run.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
	// CreatePermission fails with shared.ErrDuplicate when the name exists.
	CreatePermission(ctx context.Context, name, guard string) (int64, error)
	FindOrCreateRole(ctx context.Context, name, guard string) (int64, error)
	SyncRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
	CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
}

// Admin describes the first administrator account.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// Result reports what Run created.
type Result struct {
	PermissionIDs []int64
	RoleID        int64
	UserID        int64
}

// Run seeds the store in a single transaction. Running it twice fails on the
// permission names and leaves the store untouched.
func Run(ctx context.Context, store Store, admin Admin, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return Result{}, fmt.Errorf("seed: hash password: %w", err)
	}

	var res Result
	err = store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		res = Result{}
		for _, capability := range rbac.AllCapabilities() {
			id, err := tx.CreatePermission(ctx, capability.String(), rbac.DefaultGuard)
			if err != nil {
				return fmt.Errorf("seed: permission %q: %w", capability, err)
			}
			res.PermissionIDs = append(res.PermissionIDs, id)
		}
		logger.Info("seeded permissions", slog.Int("count", len(res.PermissionIDs)))

		roleID, err := tx.FindOrCreateRole(ctx, rbac.SuperAdminRole, rbac.DefaultGuard)
		if err != nil {
			return fmt.Errorf("seed: role %q: %w", rbac.SuperAdminRole, err)
		}
		if err := tx.SyncRolePermissions(ctx, roleID, res.PermissionIDs); err != nil {
			return fmt.Errorf("seed: sync role permissions: %w", err)
		}
		res.RoleID = roleID

		userID, err := tx.CreateUser(ctx, admin.Name, email, string(hash))
		if err != nil {
			return fmt.Errorf("seed: admin user %q: %w", email, err)
		}
		if err := tx.AssignRole(ctx, userID, roleID); err != nil {
			return fmt.Errorf("seed: assign role: %w", err)
		}
		res.UserID = userID
		logger.Info("seeded administrator", slog.Int64("user_id", userID), slog.String("email", email))
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

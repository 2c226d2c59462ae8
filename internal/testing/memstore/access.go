package memstore

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-admin/internal/auth"
	"github.com/odyssey-erp/odyssey-admin/internal/rbac"
	"github.com/odyssey-erp/odyssey-admin/internal/seed"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

type rbacRepo struct{ view }

// RBAC returns an rbac.Repository over the store.
func (s *Store) RBAC() rbac.Repository {
	return rbacRepo{view{s: s}}
}

func (r rbacRepo) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := r.do("EffectivePermissions", func(st *state) error {
		if _, ok := st.users[userID]; !ok {
			return shared.ErrNotFound
		}
		seen := map[int64]struct{}{}
		for roleID := range st.userRoles[userID] {
			for permID := range st.rolePerms[roleID] {
				if _, dup := seen[permID]; dup {
					continue
				}
				seen[permID] = struct{}{}
				names = append(names, st.permissions[permID].Name)
			}
		}
		return nil
	})
	return names, err
}

type authRepo struct{ view }

// Auth returns an auth.Repository over the store.
func (s *Store) Auth() auth.Repository {
	return authRepo{view{s: s}}
}

func (r authRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	var out *auth.User
	err := r.do("FindByEmail", func(st *state) error {
		id := st.userByEmail(email, 0)
		if id == 0 {
			return shared.ErrNotFound
		}
		row := st.users[id]
		out = &auth.User{ID: row.ID, Name: row.Name, Email: row.Email, PasswordHash: row.Hash}
		return nil
	})
	return out, err
}

func (r authRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	var out *auth.User
	err := r.do("FindByID", func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = &auth.User{ID: row.ID, Name: row.Name, Email: row.Email, PasswordHash: row.Hash}
		return nil
	})
	return out, err
}

func (r authRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return r.do("CreateSession", func(st *state) error {
		st.sessions[id] = userID
		return nil
	})
}

func (r authRepo) DeleteSession(ctx context.Context, id string) error {
	return r.do("DeleteSession", func(st *state) error {
		delete(st.sessions, id)
		return nil
	})
}

type seedStore struct{ view }

// Seed returns a seed.Store over the store.
func (s *Store) Seed() seed.Store {
	return seedStore{view{s: s}}
}

func (r seedStore) WithTx(ctx context.Context, fn func(context.Context, seed.Store) error) error {
	return r.withTx(func(tx view) error {
		return fn(ctx, seedStore{tx})
	})
}

func (r seedStore) CreatePermission(ctx context.Context, name, guard string) (int64, error) {
	var id int64
	err := r.do("CreatePermission", func(st *state) error {
		row, err := st.insertPermission(name, guard)
		id = row.ID
		return err
	})
	return id, err
}

func (r seedStore) FindOrCreateRole(ctx context.Context, name, guard string) (int64, error) {
	var id int64
	err := r.do("FindOrCreateRole", func(st *state) error {
		if id = st.roleByName(name, 0); id != 0 {
			return nil
		}
		row, err := st.insertRole(name, guard)
		id = row.ID
		return err
	})
	return id, err
}

func (r seedStore) SyncRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return r.do("SyncRolePermissions", func(st *state) error {
		replaceSet(st.rolePerms, roleID, permissionIDs)
		return nil
	})
}

func (r seedStore) CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var id int64
	err := r.do("CreateUser", func(st *state) error {
		row, err := st.insertUser(name, email, passwordHash)
		id = row.ID
		return err
	})
	return id, err
}

func (r seedStore) AssignRole(ctx context.Context, userID, roleID int64) error {
	return r.do("AssignRole", func(st *state) error {
		set := st.userRoles[userID]
		if set == nil {
			set = map[int64]struct{}{}
			st.userRoles[userID] = set
		}
		set[roleID] = struct{}{}
		return nil
	})
}

// CallerWith returns a caller holding exactly caps.
func CallerWith(userID int64, caps ...rbac.Capability) rbac.Caller {
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.String())
	}
	return rbac.NewCaller(userID, names)
}

// SuperCaller returns a caller holding every built-in capability.
func SuperCaller(userID int64) rbac.Caller {
	return CallerWith(userID, rbac.AllCapabilities()...)
}

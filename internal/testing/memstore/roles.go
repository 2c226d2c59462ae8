package memstore

import (
	"context"
	"sort"

	"github.com/odyssey-erp/odyssey-admin/internal/roles"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

type roleRepo struct{ view }

// Roles returns a roles.Repository over the store.
func (s *Store) Roles() roles.Repository {
	return roleRepo{view{s: s}}
}

func (r roleRepo) WithTx(ctx context.Context, fn func(context.Context, roles.Repository) error) error {
	return r.withTx(func(tx view) error {
		return fn(ctx, roleRepo{tx})
	})
}

func (st *state) roleToDomain(row roleRow) roles.Role {
	role := roles.Role{
		ID:          row.ID,
		Name:        row.Name,
		GuardName:   row.Guard,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		Permissions: []roles.PermissionRef{},
	}
	for id := range st.rolePerms[row.ID] {
		p := st.permissions[id]
		role.Permissions = append(role.Permissions, roles.PermissionRef{ID: p.ID, Name: p.Name})
	}
	sort.Slice(role.Permissions, func(i, j int) bool { return role.Permissions[i].Name < role.Permissions[j].Name })
	return role
}

func (r roleRepo) List(ctx context.Context, filters shared.ListFilters) ([]roles.Role, int, error) {
	var out []roles.Role
	var total int
	err := r.do("List", func(st *state) error {
		rows := make([]roleRow, 0, len(st.roles))
		for _, row := range st.roles {
			rows = append(rows, row)
		}
		var selected []roleRow
		selected, total = page(rows, func(r roleRow) string { return r.Name }, filters)
		for _, row := range selected {
			out = append(out, st.roleToDomain(row))
		}
		return nil
	})
	return out, total, err
}

func (r roleRepo) Get(ctx context.Context, id int64) (roles.Role, error) {
	var out roles.Role
	err := r.do("Get", func(st *state) error {
		row, ok := st.roles[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = st.roleToDomain(row)
		return nil
	})
	return out, err
}

func (r roleRepo) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.do("NameTaken", func(st *state) error {
		taken = st.roleByName(name, exceptID) != 0
		return nil
	})
	return taken, err
}

func (r roleRepo) Create(ctx context.Context, name, guard string) (roles.Role, error) {
	var out roles.Role
	err := r.do("Create", func(st *state) error {
		row, err := st.insertRole(name, guard)
		if err != nil {
			return err
		}
		out = st.roleToDomain(row)
		return nil
	})
	return out, err
}

func (r roleRepo) UpdateName(ctx context.Context, id int64, name string) error {
	return r.do("UpdateName", func(st *state) error {
		row, ok := st.roles[id]
		if !ok {
			return shared.ErrNotFound
		}
		if st.roleByName(name, id) != 0 {
			return shared.ErrDuplicate
		}
		row.Name = name
		row.UpdatedAt = st.now()
		st.roles[id] = row
		return nil
	})
}

func (r roleRepo) Delete(ctx context.Context, id int64) error {
	return r.do("Delete", func(st *state) error {
		if _, ok := st.roles[id]; !ok {
			return shared.ErrNotFound
		}
		delete(st.roles, id)
		delete(st.rolePerms, id)
		unlink(st.userRoles, id)
		return nil
	})
}

func (r roleRepo) AllPermissions(ctx context.Context) ([]roles.PermissionRef, error) {
	var out []roles.PermissionRef
	err := r.do("AllPermissions", func(st *state) error {
		for _, p := range st.permissions {
			out = append(out, roles.PermissionRef{ID: p.ID, Name: p.Name})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Name != out[j].Name {
				return out[i].Name < out[j].Name
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

func (r roleRepo) PermissionIDs(ctx context.Context, names []string) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.do("PermissionIDs", func(st *state) error {
		for _, name := range names {
			if id := st.permissionByName(name, 0); id != 0 {
				out[name] = id
			}
		}
		return nil
	})
	return out, err
}

func (r roleRepo) SyncPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	return r.do("SyncPermissions", func(st *state) error {
		replaceSet(st.rolePerms, roleID, permissionIDs)
		return nil
	})
}

func (st *state) roleByName(name string, exceptID int64) int64 {
	for id, row := range st.roles {
		if row.Name == name && id != exceptID {
			return id
		}
	}
	return 0
}

func (st *state) insertRole(name, guard string) (roleRow, error) {
	if st.roleByName(name, 0) != 0 {
		return roleRow{}, shared.ErrDuplicate
	}
	now := st.now()
	row := roleRow{ID: st.nextID("roles"), Name: name, Guard: guard, CreatedAt: now, UpdatedAt: now}
	st.roles[row.ID] = row
	return row, nil
}

package memstore

import (
	"context"

	"github.com/odyssey-erp/odyssey-admin/internal/permissions"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

type permissionRepo struct{ view }

// Permissions returns a permissions.Repository over the store.
func (s *Store) Permissions() permissions.Repository {
	return permissionRepo{view{s: s}}
}

func (r permissionRow) toDomain() permissions.Permission {
	return permissions.Permission{ID: r.ID, Name: r.Name, GuardName: r.Guard, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func (r permissionRepo) List(ctx context.Context, filters shared.ListFilters) ([]permissions.Permission, int, error) {
	var out []permissions.Permission
	var total int
	err := r.do("List", func(st *state) error {
		rows := make([]permissionRow, 0, len(st.permissions))
		for _, row := range st.permissions {
			rows = append(rows, row)
		}
		var selected []permissionRow
		selected, total = page(rows, func(p permissionRow) string { return p.Name }, filters)
		for _, row := range selected {
			out = append(out, row.toDomain())
		}
		return nil
	})
	return out, total, err
}

func (r permissionRepo) Get(ctx context.Context, id int64) (permissions.Permission, error) {
	var out permissions.Permission
	err := r.do("Get", func(st *state) error {
		row, ok := st.permissions[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = row.toDomain()
		return nil
	})
	return out, err
}

func (r permissionRepo) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.do("NameTaken", func(st *state) error {
		taken = st.permissionByName(name, exceptID) != 0
		return nil
	})
	return taken, err
}

func (r permissionRepo) Create(ctx context.Context, name, guard string) (permissions.Permission, error) {
	var out permissions.Permission
	err := r.do("Create", func(st *state) error {
		row, err := st.insertPermission(name, guard)
		out = row.toDomain()
		return err
	})
	return out, err
}

func (r permissionRepo) Update(ctx context.Context, id int64, name string) (permissions.Permission, error) {
	var out permissions.Permission
	err := r.do("Update", func(st *state) error {
		row, ok := st.permissions[id]
		if !ok {
			return shared.ErrNotFound
		}
		if st.permissionByName(name, id) != 0 {
			return shared.ErrDuplicate
		}
		row.Name = name
		row.UpdatedAt = st.now()
		st.permissions[id] = row
		out = row.toDomain()
		return nil
	})
	return out, err
}

func (r permissionRepo) Delete(ctx context.Context, id int64) error {
	return r.do("Delete", func(st *state) error {
		if _, ok := st.permissions[id]; !ok {
			return shared.ErrNotFound
		}
		delete(st.permissions, id)
		unlink(st.rolePerms, id)
		return nil
	})
}

func (st *state) permissionByName(name string, exceptID int64) int64 {
	for id, row := range st.permissions {
		if row.Name == name && id != exceptID {
			return id
		}
	}
	return 0
}

func (st *state) insertPermission(name, guard string) (permissionRow, error) {
	if st.permissionByName(name, 0) != 0 {
		return permissionRow{}, shared.ErrDuplicate
	}
	now := st.now()
	row := permissionRow{ID: st.nextID("permissions"), Name: name, Guard: guard, CreatedAt: now, UpdatedAt: now}
	st.permissions[row.ID] = row
	return row, nil
}

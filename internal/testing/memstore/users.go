package memstore

import (
	"context"
	"sort"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
	"github.com/odyssey-erp/odyssey-admin/internal/users"
)

type userRepo struct{ view }

// Users returns a users.Repository over the store.
func (s *Store) Users() users.Repository {
	return userRepo{view{s: s}}
}

func (r userRepo) WithTx(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	return r.withTx(func(tx view) error {
		return fn(ctx, userRepo{tx})
	})
}

func (st *state) userToDomain(row userRow) users.User {
	u := users.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Roles:     []users.RoleRef{},
	}
	if row.VerifiedAt != nil {
		t := *row.VerifiedAt
		u.EmailVerifiedAt = &t
	}
	for id := range st.userRoles[row.ID] {
		role := st.roles[id]
		u.Roles = append(u.Roles, users.RoleRef{ID: role.ID, Name: role.Name})
	}
	sort.Slice(u.Roles, func(i, j int) bool { return u.Roles[i].Name < u.Roles[j].Name })
	return u
}

func (r userRepo) List(ctx context.Context, filters shared.ListFilters) ([]users.User, int, error) {
	var out []users.User
	var total int
	err := r.do("List", func(st *state) error {
		rows := make([]userRow, 0, len(st.users))
		for _, row := range st.users {
			rows = append(rows, row)
		}
		var selected []userRow
		selected, total = page(rows, func(u userRow) string { return u.Name }, filters)
		for _, row := range selected {
			out = append(out, st.userToDomain(row))
		}
		return nil
	})
	return out, total, err
}

func (r userRepo) Get(ctx context.Context, id int64) (users.User, error) {
	var out users.User
	err := r.do("Get", func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return shared.ErrNotFound
		}
		out = st.userToDomain(row)
		return nil
	})
	return out, err
}

func (r userRepo) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := r.do("EmailTaken", func(st *state) error {
		taken = st.userByEmail(email, exceptID) != 0
		return nil
	})
	return taken, err
}

func (r userRepo) Create(ctx context.Context, user users.NewUser) (users.User, error) {
	var out users.User
	err := r.do("Create", func(st *state) error {
		row, err := st.insertUser(user.Name, user.Email, user.PasswordHash)
		if err != nil {
			return err
		}
		out = st.userToDomain(row)
		return nil
	})
	return out, err
}

func (r userRepo) UpdateProfile(ctx context.Context, id int64, change users.ProfileChange) error {
	return r.do("UpdateProfile", func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return shared.ErrNotFound
		}
		if st.userByEmail(change.Email, id) != 0 {
			return shared.ErrDuplicate
		}
		row.Name = change.Name
		row.Email = change.Email
		if change.ResetVerification {
			row.VerifiedAt = nil
		}
		row.UpdatedAt = st.now()
		st.users[id] = row
		return nil
	})
}

func (r userRepo) Delete(ctx context.Context, id int64) error {
	return r.do("Delete", func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return shared.ErrNotFound
		}
		delete(st.users, id)
		delete(st.userRoles, id)
		for sid, uid := range st.sessions {
			if uid == id {
				delete(st.sessions, sid)
			}
		}
		return nil
	})
}

func (r userRepo) PasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.do("PasswordHash", func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return shared.ErrNotFound
		}
		hash = row.Hash
		return nil
	})
	return hash, err
}

func (r userRepo) AllRoles(ctx context.Context) ([]users.RoleRef, error) {
	var out []users.RoleRef
	err := r.do("AllRoles", func(st *state) error {
		rows := make([]roleRow, 0, len(st.roles))
		for _, row := range st.roles {
			rows = append(rows, row)
		}
		sorted, _ := page(rows, func(r roleRow) string { return r.Name }, shared.ListFilters{Page: 1, Limit: len(rows) + 1})
		for _, row := range sorted {
			out = append(out, users.RoleRef{ID: row.ID, Name: row.Name})
		}
		return nil
	})
	return out, err
}

func (r userRepo) RoleIDs(ctx context.Context, names []string) (map[string]int64, error) {
	out := map[string]int64{}
	err := r.do("RoleIDs", func(st *state) error {
		for _, name := range names {
			if id := st.roleByName(name, 0); id != 0 {
				out[name] = id
			}
		}
		return nil
	})
	return out, err
}

func (r userRepo) SyncRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return r.do("SyncRoles", func(st *state) error {
		replaceSet(st.userRoles, userID, roleIDs)
		return nil
	})
}

// VerifyEmail marks a user's email as verified.
func (s *Store) VerifyEmail(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.st.users[id]
	if !ok {
		return
	}
	at := s.st.now()
	row.VerifiedAt = &at
	s.st.users[id] = row
}

func (st *state) userByEmail(email string, exceptID int64) int64 {
	for id, row := range st.users {
		if row.Email == email && id != exceptID {
			return id
		}
	}
	return 0
}

func (st *state) insertUser(name, email, hash string) (userRow, error) {
	if st.userByEmail(email, 0) != 0 {
		return userRow{}, shared.ErrDuplicate
	}
	now := st.now()
	row := userRow{ID: st.nextID("users"), Name: name, Email: email, Hash: hash, CreatedAt: now, UpdatedAt: now}
	st.users[row.ID] = row
	return row, nil
}

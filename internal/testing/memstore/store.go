// Package memstore is an in-memory implementation of every repository, used by
// package tests in place of PostgreSQL. Transactions copy the whole state and
// swap it in on success.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Store holds the tables. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
}

type permissionRow struct {
	ID        int64
	Name      string
	Guard     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type roleRow struct {
	ID        int64
	Name      string
	Guard     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type userRow struct {
	ID         int64
	Name       string
	Email      string
	Hash       string
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type state struct {
	clock       int64
	lastID      map[string]int64
	permissions map[int64]permissionRow
	roles       map[int64]roleRow
	users       map[int64]userRow
	rolePerms   map[int64]map[int64]struct{}
	userRoles   map[int64]map[int64]struct{}
	sessions    map[string]int64
}

// Snapshot is a deep copy of the tables, comparable with assert.Equal.
type Snapshot struct {
	st *state
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

func newState() *state {
	return &state{
		lastID:      map[string]int64{},
		permissions: map[int64]permissionRow{},
		roles:       map[int64]roleRow{},
		users:       map[int64]userRow{},
		rolePerms:   map[int64]map[int64]struct{}{},
		userRoles:   map[int64]map[int64]struct{}{},
		sessions:    map[string]int64{},
	}
}

// Snapshot copies the current tables.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{st: s.st.clone()}
}

// FailOn makes the named operation return err until cleared with a nil err.
// Operation names are the repository method names, e.g. "SyncPermissions".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Sessions returns the recorded login sessions by id.
func (s *Store) Sessions() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.st.sessions))
	for k, v := range s.st.sessions {
		out[k] = v
	}
	return out
}

func (st *state) clone() *state {
	c := newState()
	c.clock = st.clock
	for k, v := range st.lastID {
		c.lastID[k] = v
	}
	for k, v := range st.permissions {
		c.permissions[k] = v
	}
	for k, v := range st.roles {
		c.roles[k] = v
	}
	for k, v := range st.users {
		if v.VerifiedAt != nil {
			t := *v.VerifiedAt
			v.VerifiedAt = &t
		}
		c.users[k] = v
	}
	c.rolePerms = cloneRelation(st.rolePerms)
	c.userRoles = cloneRelation(st.userRoles)
	for k, v := range st.sessions {
		c.sessions[k] = v
	}
	return c
}

func cloneRelation(rel map[int64]map[int64]struct{}) map[int64]map[int64]struct{} {
	out := make(map[int64]map[int64]struct{}, len(rel))
	for owner, set := range rel {
		if len(set) == 0 {
			continue
		}
		cp := make(map[int64]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		out[owner] = cp
	}
	return out
}

// now advances a logical clock so creation order is total.
func (st *state) now() time.Time {
	st.clock++
	return epoch.Add(time.Duration(st.clock) * time.Second)
}

func (st *state) nextID(table string) int64 {
	st.lastID[table]++
	return st.lastID[table]
}

// replaceSet replaces the set owned by owner.
func replaceSet(rel map[int64]map[int64]struct{}, owner int64, ids []int64) {
	if len(ids) == 0 {
		delete(rel, owner)
		return
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	rel[owner] = set
}

// unlink removes target from every set.
func unlink(rel map[int64]map[int64]struct{}, target int64) {
	for owner, set := range rel {
		delete(set, target)
		if len(set) == 0 {
			delete(rel, owner)
		}
	}
}

// view runs operations either against the live state under the store lock or
// against a transaction's private copy.
type view struct {
	s  *Store
	tx *state
}

func (v view) do(op string, fn func(*state) error) error {
	if v.tx != nil {
		if err := v.s.failures[op]; err != nil {
			return err
		}
		return fn(v.tx)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if err := v.s.failures[op]; err != nil {
		return err
	}
	return fn(v.s.st)
}

func (v view) withTx(fn func(view) error) error {
	if v.tx != nil {
		return fn(v)
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	work := v.s.st.clone()
	if err := fn(view{s: v.s, tx: work}); err != nil {
		return err
	}
	v.s.st = work
	return nil
}

type listed interface {
	sortKey() (time.Time, int64)
}

func (r permissionRow) sortKey() (time.Time, int64) { return r.CreatedAt, r.ID }
func (r roleRow) sortKey() (time.Time, int64)       { return r.CreatedAt, r.ID }
func (r userRow) sortKey() (time.Time, int64)       { return r.CreatedAt, r.ID }

// page filters by name, orders newest first and cuts the requested page.
func page[T listed](rows []T, name func(T) string, filters shared.ListFilters) ([]T, int) {
	if filters.Search != "" {
		needle := fold(filters.Search)
		kept := rows[:0]
		for _, row := range rows {
			if strings.Contains(fold(name(row)), needle) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}
	sort.Slice(rows, func(i, j int) bool {
		ti, ii := rows[i].sortKey()
		tj, ij := rows[j].sortKey()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ii > ij
	})
	total := len(rows)
	p := filters.Pagination(total)
	start := p.Offset()
	if start >= total {
		return nil, total
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}
	return rows[start:end], total
}

func fold(s string) string {
	return cases.Fold().String(s)
}

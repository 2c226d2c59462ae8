package users

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/db"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// Repository persists users and their role sets.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, filters shared.ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Create(ctx context.Context, user NewUser) (User, error)
	UpdateProfile(ctx context.Context, id int64, change ProfileChange) error
	Delete(ctx context.Context, id int64) error
	PasswordHash(ctx context.Context, id int64) (string, error)
	// AllRoles returns every role, newest first.
	AllRoles(ctx context.Context) ([]RoleRef, error)
	// RoleIDs maps the given names to ids. Unknown names are absent.
	RoleIDs(ctx context.Context, names []string) (map[string]int64, error)
	// SyncRoles makes the user's role set exactly roleIDs.
	SyncRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const userColumns = `id, name, email, email_verified_at, created_at, updated_at`

// List uses a dynamic query because the search filter is optional.
func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	where := ``
	args := []any{}
	if filters.Search != "" {
		args = append(args, db.ContainsPattern(filters.Search))
		where = ` WHERE name ILIKE $1`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filters.Pagination(total)
	query := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY created_at DESC, id DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	users, err := pgx.CollectRows(rows, scanUser)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachRoles(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return User{}, err
	}
	user, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	users := []User{user}
	if err := r.attachRoles(ctx, users); err != nil {
		return User{}, err
	}
	return users[0], nil
}

func (r *repository) attachRoles(ctx context.Context, users []User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, len(users))
	byID := make(map[int64]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
		byID[users[i].ID] = i
		users[i].Roles = []RoleRef{}
	}
	rows, err := r.db.Query(ctx, `
		SELECT ur.user_id, r.id, r.name
		FROM user_has_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY r.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		var role RoleRef
		if err := rows.Scan(&userID, &role.ID, &role.Name); err != nil {
			return err
		}
		i := byID[userID]
		users[i].Roles = append(users[i].Roles, role)
	}
	return rows.Err()
}

func (r *repository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, exceptID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, user NewUser) (User, error) {
	rows, err := r.db.Query(ctx,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING `+userColumns,
		user.Name, user.Email, user.PasswordHash, time.Now().UTC(),
	)
	if err != nil {
		return User{}, err
	}
	created, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if _, dup := db.UniqueViolation(err); dup {
		return User{}, shared.ErrDuplicate
	}
	created.Roles = []RoleRef{}
	return created, err
}

func (r *repository) UpdateProfile(ctx context.Context, id int64, change ProfileChange) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $2,
		    email = $3,
		    email_verified_at = CASE WHEN $4 THEN NULL ELSE email_verified_at END,
		    updated_at = $5
		WHERE id = $1`,
		id, change.Name, change.Email, change.ResetVerification, time.Now().UTC(),
	)
	if _, dup := db.UniqueViolation(err); dup {
		return shared.ErrDuplicate
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) PasswordHash(ctx context.Context, id int64) (string, error) {
	var hash string
	err := r.db.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", shared.ErrNotFound
	}
	return hash, err
}

func (r *repository) AllRoles(ctx context.Context) ([]RoleRef, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RoleRef, error) {
		var role RoleRef
		err := row.Scan(&role.ID, &role.Name)
		return role, err
	})
}

func (r *repository) RoleIDs(ctx context.Context, names []string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM roles WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[string]int64, len(names))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

// SyncRoles deletes rows outside the set and inserts the missing ones.
func (r *repository) SyncRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	if roleIDs == nil {
		roleIDs = []int64{}
	}
	if _, err := r.db.Exec(ctx,
		`DELETE FROM user_has_roles WHERE user_id = $1 AND NOT (role_id = ANY($2))`,
		userID, roleIDs,
	); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_has_roles (user_id, role_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, userID, roleIDs)
	return err
}

func scanUser(row pgx.CollectableRow) (User, error) {
	var u User
	var verified pgtype.Timestamptz
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &verified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	if verified.Valid {
		t := verified.Time
		u.EmailVerifiedAt = &t
	}
	return u, nil
}

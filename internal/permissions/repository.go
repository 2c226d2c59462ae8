package permissions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/db"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// Repository persists permissions.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Permission, int, error)
	Get(ctx context.Context, id int64) (Permission, error)
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	Create(ctx context.Context, name, guard string) (Permission, error)
	Update(ctx context.Context, id int64, name string) (Permission, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const permissionColumns = `id, name, guard_name, created_at, updated_at`

// List uses a dynamic query because the search filter is optional.
func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Permission, int, error) {
	where := ``
	args := []any{}
	if filters.Search != "" {
		args = append(args, db.ContainsPattern(filters.Search))
		where = ` WHERE name ILIKE $1`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM permissions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filters.Pagination(total)
	query := `SELECT ` + permissionColumns + ` FROM permissions` + where +
		` ORDER BY created_at DESC, id DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.GuardName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		perms = append(perms, p)
	}
	return perms, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Permission, error) {
	var p Permission
	err := r.db.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.GuardName, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM permissions WHERE name = $1 AND id <> $2)`, name, exceptID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, name, guard string) (Permission, error) {
	now := time.Now().UTC()
	var p Permission
	err := r.db.QueryRow(ctx,
		`INSERT INTO permissions (name, guard_name, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING `+permissionColumns,
		name, guard, now,
	).Scan(&p.ID, &p.Name, &p.GuardName, &p.CreatedAt, &p.UpdatedAt)
	if _, dup := db.UniqueViolation(err); dup {
		return Permission{}, shared.ErrDuplicate
	}
	return p, err
}

func (r *repository) Update(ctx context.Context, id int64, name string) (Permission, error) {
	var p Permission
	err := r.db.QueryRow(ctx,
		`UPDATE permissions SET name = $2, updated_at = $3 WHERE id = $1 RETURNING `+permissionColumns,
		id, name, time.Now().UTC(),
	).Scan(&p.ID, &p.Name, &p.GuardName, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	if _, dup := db.UniqueViolation(err); dup {
		return Permission{}, shared.ErrDuplicate
	}
	return p, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

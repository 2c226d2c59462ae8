package roles

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/db"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// Repository persists roles and their permission sets.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	List(ctx context.Context, filters shared.ListFilters) ([]Role, int, error)
	Get(ctx context.Context, id int64) (Role, error)
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	Create(ctx context.Context, name, guard string) (Role, error)
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	// AllPermissions returns every permission ordered by name.
	AllPermissions(ctx context.Context) ([]PermissionRef, error)
	// PermissionIDs maps the given names to ids. Unknown names are absent.
	PermissionIDs(ctx context.Context, names []string) (map[string]int64, error)
	// SyncPermissions makes the role's permission set exactly permissionIDs.
	SyncPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error
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

const roleColumns = `id, name, guard_name, created_at, updated_at`

// List uses a dynamic query because the search filter is optional.
func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Role, int, error) {
	where := ``
	args := []any{}
	if filters.Search != "" {
		args = append(args, db.ContainsPattern(filters.Search))
		where = ` WHERE name ILIKE $1`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM roles`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filters.Pagination(total)
	query := `SELECT ` + roleColumns + ` FROM roles` + where +
		` ORDER BY created_at DESC, id DESC` +
		` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	roles, err := pgx.CollectRows(rows, scanRole)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Role, error) {
	rows, err := r.db.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	if err != nil {
		return Role{}, err
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	if err != nil {
		return Role{}, err
	}
	roles := []Role{role}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return Role{}, err
	}
	return roles[0], nil
}

// attachPermissions loads the permission sets of roles in one query.
func (r *repository) attachPermissions(ctx context.Context, roles []Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := make([]int64, len(roles))
	byID := make(map[int64]int, len(roles))
	for i := range roles {
		ids[i] = roles[i].ID
		byID[roles[i].ID] = i
		roles[i].Permissions = []PermissionRef{}
	}
	rows, err := r.db.Query(ctx, `
		SELECT rp.role_id, p.id, p.name
		FROM role_has_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var roleID int64
		var p PermissionRef
		if err := rows.Scan(&roleID, &p.ID, &p.Name); err != nil {
			return err
		}
		i := byID[roleID]
		roles[i].Permissions = append(roles[i].Permissions, p)
	}
	return rows.Err()
}

func (r *repository) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1 AND id <> $2)`, name, exceptID).Scan(&taken)
	return taken, err
}

func (r *repository) Create(ctx context.Context, name, guard string) (Role, error) {
	rows, err := r.db.Query(ctx,
		`INSERT INTO roles (name, guard_name, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING `+roleColumns,
		name, guard, time.Now().UTC(),
	)
	if err != nil {
		return Role{}, err
	}
	role, err := pgx.CollectExactlyOneRow(rows, scanRole)
	if _, dup := db.UniqueViolation(err); dup {
		return Role{}, shared.ErrDuplicate
	}
	role.Permissions = []PermissionRef{}
	return role, err
}

func (r *repository) UpdateName(ctx context.Context, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE roles SET name = $2, updated_at = $3 WHERE id = $1`, id, name, time.Now().UTC())
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
	tag, err := r.db.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) AllPermissions(ctx context.Context) ([]PermissionRef, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM permissions ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PermissionRef, error) {
		var p PermissionRef
		err := row.Scan(&p.ID, &p.Name)
		return p, err
	})
}

func (r *repository) PermissionIDs(ctx context.Context, names []string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM permissions WHERE name = ANY($1)`, names)
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

// SyncPermissions deletes rows outside the set and inserts the missing ones.
func (r *repository) SyncPermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if permissionIDs == nil {
		permissionIDs = []int64{}
	}
	if _, err := r.db.Exec(ctx,
		`DELETE FROM role_has_permissions WHERE role_id = $1 AND NOT (permission_id = ANY($2))`,
		roleID, permissionIDs,
	); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO role_has_permissions (role_id, permission_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, roleID, permissionIDs)
	return err
}

func scanRole(row pgx.CollectableRow) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.GuardName, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

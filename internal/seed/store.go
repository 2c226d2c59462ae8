package seed

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/db"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

type pgStore struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewStore returns a PostgreSQL backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool, pool: pool}
}

func (s *pgStore) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgStore{db: tx, pool: s.pool})
	})
}

func (s *pgStore) CreatePermission(ctx context.Context, name, guard string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO permissions (name, guard_name, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`,
		name, guard, time.Now().UTC(),
	).Scan(&id)
	if _, dup := db.UniqueViolation(err); dup {
		return 0, shared.ErrDuplicate
	}
	return id, err
}

func (s *pgStore) FindOrCreateRole(ctx context.Context, name, guard string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	err = s.db.QueryRow(ctx,
		`INSERT INTO roles (name, guard_name, created_at, updated_at) VALUES ($1, $2, $3, $3) RETURNING id`,
		name, guard, time.Now().UTC(),
	).Scan(&id)
	return id, err
}

func (s *pgStore) SyncRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM role_has_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO role_has_permissions (role_id, permission_id) SELECT $1, unnest($2::bigint[])`,
		roleID, permissionIDs,
	)
	return err
}

func (s *pgStore) CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		name, email, passwordHash, time.Now().UTC(),
	).Scan(&id)
	if _, dup := db.UniqueViolation(err); dup {
		return 0, shared.ErrDuplicate
	}
	return id, err
}

func (s *pgStore) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO user_has_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID,
	)
	return err
}

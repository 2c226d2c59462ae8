package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/odyssey-admin/internal/platform/db"
	"github.com/odyssey-erp/odyssey-admin/internal/shared"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const effectivePermissionsSQL = `
SELECT DISTINCT p.name
FROM users u
LEFT JOIN user_has_roles ur ON ur.user_id = u.id
LEFT JOIN role_has_permissions rp ON rp.role_id = ur.role_id
LEFT JOIN permissions p ON p.id = rp.permission_id
WHERE u.id = $1`

// EffectivePermissions returns the union of permission names over the user's roles.
func (r *PGRepository) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, effectivePermissionsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := false
	var names []string
	for rows.Next() {
		found = true
		var name pgtype.Text
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name.Valid {
			names = append(names, name.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, shared.ErrNotFound
	}
	return names, nil
}

var _ Repository = (*PGRepository)(nil)

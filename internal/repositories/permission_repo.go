package repositories

import (
	"context"
	"fmt"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/lib/pq"
)

// PermissionRepository answers tab access checks for the RequireTab middleware
type PermissionRepository struct {
	db *database.DB
}

func NewPermissionRepository(db *database.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) HasAccess(ctx context.Context, userID, tab string) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM admin_permissions WHERE user_id = $1 AND tab_name = $2)
	`, userID, tab).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check permission: %w", err)
	}
	return ok, nil
}

func (r *PermissionRepository) ListForUser(ctx context.Context, userID string) ([]string, error) {
	return listPermissions(ctx, r.db.Pool, userID)
}

func listPermissions(ctx context.Context, q querier, userID string) ([]string, error) {
	rows, err := q.Query(ctx,
		`SELECT tab_name FROM admin_permissions WHERE user_id = $1 ORDER BY tab_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	tabs := make([]string, 0)
	for rows.Next() {
		var tab string
		if err := rows.Scan(&tab); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		tabs = append(tabs, tab)
	}
	return tabs, rows.Err()
}

func listAllPermissions(ctx context.Context, q querier) (map[string][]string, error) {
	rows, err := q.Query(ctx, `SELECT user_id, tab_name FROM admin_permissions ORDER BY tab_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	perms := make(map[string][]string)
	for rows.Next() {
		var userID, tab string
		if err := rows.Scan(&userID, &tab); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms[userID] = append(perms[userID], tab)
	}
	return perms, rows.Err()
}

// replacePermissions swaps the user's tab set for tabs, inserting them in one statement
func replacePermissions(ctx context.Context, q querier, userID string, tabs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM admin_permissions WHERE user_id = $1`, userID); err != nil {
		return database.MapPostgresError(err)
	}
	if len(tabs) == 0 {
		return nil
	}
	if _, err := q.Exec(ctx, `
		INSERT INTO admin_permissions (user_id, tab_name)
		SELECT $1, tab FROM unnest($2::text[]) AS tab
		ON CONFLICT DO NOTHING
	`, userID, pq.Array(tabs)); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

type SystemLogRepository struct {
	db *database.DB
}

func NewSystemLogRepository(db *database.DB) *SystemLogRepository {
	return &SystemLogRepository{db: db}
}

func (r *SystemLogRepository) Create(ctx context.Context, adminID *string, action, details string) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO system_logs (admin_id, action, details, timestamp)
		VALUES ($1, $2, $3, NOW())
	`, adminID, action, details)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// List applies the optional filters and returns newest first
func (r *SystemLogRepository) List(ctx context.Context, f models.SystemLogFilter) ([]*models.SystemLog, error) {
	conditions := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if f.AdminID != "" {
		args = append(args, f.AdminID)
		conditions = append(conditions, fmt.Sprintf("admin_id = $%d", len(args)))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	query := `SELECT id, admin_id::text, action, details, timestamp FROM system_logs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY timestamp DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	logs := make([]*models.SystemLog, 0)
	for rows.Next() {
		var l models.SystemLog
		if err := rows.Scan(&l.ID, &l.AdminID, &l.Action, &l.Details, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan system log: %w", err)
		}
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return logs, nil
}

func (r *SystemLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM system_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

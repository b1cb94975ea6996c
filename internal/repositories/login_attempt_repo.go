package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

// LoginAttemptRepository persists failed login attempts per source address
type LoginAttemptRepository struct {
	db *database.DB
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// RecordAttempt appends one failed attempt
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, sourceAddress string, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO login_attempts (source_address, attempted_at) VALUES ($1, $2)`,
		sourceAddress, at)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// GetWindow counts attempts after since, looking at no more than limit of the most
// recent ones. Oldest is the earliest of those, i.e. the limit-th most recent attempt,
// which is the one whose expiry next brings the count below limit.
func (r *LoginAttemptRepository) GetWindow(ctx context.Context, sourceAddress string, since time.Time, limit int) (*models.LoginAttemptWindow, error) {
	query := `
		SELECT COUNT(*), MIN(attempted_at)
		FROM (
			SELECT attempted_at FROM login_attempts
			WHERE source_address = $1 AND attempted_at > $2
			ORDER BY attempted_at DESC
			LIMIT $3
		) recent
	`

	var w models.LoginAttemptWindow
	if err := r.db.Pool.QueryRow(ctx, query, sourceAddress, since, limit).Scan(&w.Count, &w.Oldest); err != nil {
		return nil, fmt.Errorf("failed to count login attempts: %w", err)
	}
	return &w, nil
}

// PruneBefore deletes attempts that can no longer fall inside any window
func (r *LoginAttemptRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE attempted_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune login attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

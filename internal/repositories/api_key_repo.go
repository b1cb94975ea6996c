package repositories

import (
	"context"
	"fmt"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/jackc/pgx/v5"
)

type APIKeyRepository struct {
	db *database.DB
}

func NewAPIKeyRepository(db *database.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

const apiKeyColumns = `
	id, key_label, api_secret, key_type, billing_interval, cost_per_month, cost_per_year,
	usage_limit_sec, usage_limit_min, usage_limit_5min, usage_limit_10min, usage_limit_15min,
	usage_limit_hour, usage_limit_day, priority_order, provider, is_active, api_key_identifier,
	last_used, error_code`

func scanAPIKeyRow(scanner rowScanner) (*models.APIKey, error) {
	var k models.APIKey
	err := scanner.Scan(
		&k.ID, &k.KeyLabel, &k.APISecret, &k.KeyType, &k.BillingInterval, &k.CostPerMonth, &k.CostPerYear,
		&k.UsageLimitSec, &k.UsageLimitMin, &k.UsageLimit5Min, &k.UsageLimit10Min, &k.UsageLimit15Min,
		&k.UsageLimitHour, &k.UsageLimitDay, &k.PriorityOrder, &k.Provider, &k.IsActive, &k.APIKeyIdentifier,
		&k.LastUsed, &k.ErrorCode,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &k, nil
}

func scanAPIKeyRows(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	keys := make([]*models.APIKey, 0)
	for rows.Next() {
		k, err := scanAPIKeyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return keys, nil
}

func (r *APIKeyRepository) List(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys_table ORDER BY priority_order, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query api keys: %w", err)
	}
	return scanAPIKeyRows(rows)
}

func (r *APIKeyRepository) GetByID(ctx context.Context, id int) (*models.APIKey, error) {
	return scanAPIKeyRow(r.db.Pool.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys_table WHERE id = $1`, id))
}

// GetActive returns the active key with the best (lowest) priority_order
func (r *APIKeyRepository) GetActive(ctx context.Context) (*models.APIKey, error) {
	return scanAPIKeyRow(r.db.Pool.QueryRow(ctx, `
		SELECT `+apiKeyColumns+` FROM api_keys_table
		WHERE is_active = TRUE
		ORDER BY priority_order ASC, id ASC
		LIMIT 1
	`))
}

func (r *APIKeyRepository) Create(ctx context.Context, k *models.APIKey) (*models.APIKey, error) {
	return scanAPIKeyRow(r.db.Pool.QueryRow(ctx, `
		INSERT INTO api_keys_table (
			key_label, api_secret, key_type, billing_interval, cost_per_month, cost_per_year,
			usage_limit_sec, usage_limit_min, usage_limit_5min, usage_limit_10min, usage_limit_15min,
			usage_limit_hour, usage_limit_day, priority_order, provider, is_active, api_key_identifier
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+apiKeyColumns,
		k.KeyLabel, k.APISecret, k.KeyType, k.BillingInterval, k.CostPerMonth, k.CostPerYear,
		k.UsageLimitSec, k.UsageLimitMin, k.UsageLimit5Min, k.UsageLimit10Min, k.UsageLimit15Min,
		k.UsageLimitHour, k.UsageLimitDay, k.PriorityOrder, k.Provider, k.IsActive, k.APIKeyIdentifier,
	))
}

func (r *APIKeyRepository) Update(ctx context.Context, k *models.APIKey) (*models.APIKey, error) {
	return scanAPIKeyRow(r.db.Pool.QueryRow(ctx, `
		UPDATE api_keys_table SET
			key_label = $1, api_secret = $2, key_type = $3, billing_interval = $4,
			cost_per_month = $5, cost_per_year = $6,
			usage_limit_sec = $7, usage_limit_min = $8, usage_limit_5min = $9,
			usage_limit_10min = $10, usage_limit_15min = $11, usage_limit_hour = $12,
			usage_limit_day = $13, priority_order = $14, provider = $15, is_active = $16,
			api_key_identifier = $17
		WHERE id = $18
		RETURNING `+apiKeyColumns,
		k.KeyLabel, k.APISecret, k.KeyType, k.BillingInterval, k.CostPerMonth, k.CostPerYear,
		k.UsageLimitSec, k.UsageLimitMin, k.UsageLimit5Min, k.UsageLimit10Min, k.UsageLimit15Min,
		k.UsageLimitHour, k.UsageLimitDay, k.PriorityOrder, k.Provider, k.IsActive, k.APIKeyIdentifier,
		k.ID,
	))
}

func (r *APIKeyRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM api_keys_table WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// MarkFailed deactivates a key after the provider rejected it
func (r *APIKeyRepository) MarkFailed(ctx context.Context, id int) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE api_keys_table
		SET is_active = FALSE, last_used = NOW(), error_code = 'Failed'
		WHERE id = $1
	`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *APIKeyRepository) MarkFailedBySecret(ctx context.Context, secret string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE api_keys_table
		SET is_active = FALSE, last_used = NOW(), error_code = 'Failed'
		WHERE api_secret = $1
	`, secret)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

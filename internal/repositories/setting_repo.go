package repositories

import (
	"context"
	"fmt"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

type SettingRepository struct {
	db *database.DB
}

func NewSettingRepository(db *database.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) List(ctx context.Context) ([]*models.GlobalSetting, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, setting_key, setting_value FROM global_settings ORDER BY setting_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make([]*models.GlobalSetting, 0)
	for rows.Next() {
		var s models.GlobalSetting
		if err := rows.Scan(&s.ID, &s.SettingKey, &s.SettingValue); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, &s)
	}
	return settings, rows.Err()
}

func (r *SettingRepository) Get(ctx context.Context, key string) (*models.GlobalSetting, error) {
	var s models.GlobalSetting
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, setting_key, setting_value FROM global_settings WHERE setting_key = $1`, key,
	).Scan(&s.ID, &s.SettingKey, &s.SettingValue)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *SettingRepository) Upsert(ctx context.Context, key, value string) (*models.GlobalSetting, error) {
	var s models.GlobalSetting
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO global_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value
		RETURNING id, setting_key, setting_value
	`, key, value).Scan(&s.ID, &s.SettingKey, &s.SettingValue)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func (r *SettingRepository) Delete(ctx context.Context, key string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM global_settings WHERE setting_key = $1`, key)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

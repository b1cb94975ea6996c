package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

// SettingRepository defines the interface for global settings persistence
type SettingRepository interface {
	List(ctx context.Context) ([]*models.GlobalSetting, error)
	Get(ctx context.Context, key string) (*models.GlobalSetting, error)
	Upsert(ctx context.Context, key, value string) (*models.GlobalSetting, error)
	Delete(ctx context.Context, key string) error
}

type SettingService struct {
	repo    SettingRepository
	actions AdminActionLogger
}

func NewSettingService(repo SettingRepository, actions AdminActionLogger) *SettingService {
	return &SettingService{repo: repo, actions: actions}
}

func (s *SettingService) List(ctx context.Context) ([]*models.GlobalSetting, error) {
	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(settings) == 0 {
		return nil, fmt.Errorf("no settings found: %w", models.ErrNotFound)
	}
	return settings, nil
}

func (s *SettingService) Get(ctx context.Context, key string) (*models.GlobalSetting, error) {
	return s.repo.Get(ctx, key)
}

// Save inserts the setting or overwrites its value
func (s *SettingService) Save(ctx context.Context, actorID, key, value string) (*models.GlobalSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, models.NewFieldError("setting_key", "is required")
	}
	setting, err := s.repo.Upsert(ctx, key, value)
	if err != nil {
		return nil, err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionSettingSaved,
		fmt.Sprintf("Saved setting %s", key))
	return setting, nil
}

func (s *SettingService) Delete(ctx context.Context, actorID, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionSettingDeleted,
		fmt.Sprintf("Deleted setting %s", key))
	return nil
}

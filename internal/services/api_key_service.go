package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

// APIKeyRepository defines the interface for provider key persistence
type APIKeyRepository interface {
	List(ctx context.Context) ([]*models.APIKey, error)
	GetByID(ctx context.Context, id int) (*models.APIKey, error)
	GetActive(ctx context.Context) (*models.APIKey, error)
	Create(ctx context.Context, k *models.APIKey) (*models.APIKey, error)
	Update(ctx context.Context, k *models.APIKey) (*models.APIKey, error)
	Delete(ctx context.Context, id int) error
	MarkFailed(ctx context.Context, id int) error
	MarkFailedBySecret(ctx context.Context, secret string) error
}

// APIKeyInput is the editable part of a provider key record
type APIKeyInput struct {
	KeyLabel        string  `json:"key_label" validate:"required,max=255"`
	APISecret       string  `json:"api_secret"`
	KeyType         string  `json:"key_type"`
	BillingInterval string  `json:"billing_interval"`
	CostPerMonth    float64 `json:"cost_per_month" validate:"gte=0"`
	CostPerYear     float64 `json:"cost_per_year" validate:"gte=0"`
	UsageLimitSec   int     `json:"usage_limit_sec" validate:"gte=0"`
	UsageLimitMin   int     `json:"usage_limit_min" validate:"gte=0"`
	UsageLimit5Min  int     `json:"usage_limit_5min" validate:"gte=0"`
	UsageLimit10Min int     `json:"usage_limit_10min" validate:"gte=0"`
	UsageLimit15Min int     `json:"usage_limit_15min" validate:"gte=0"`
	UsageLimitHour  int     `json:"usage_limit_hour" validate:"gte=0"`
	UsageLimitDay   int     `json:"usage_limit_day" validate:"gte=0"`
	PriorityOrder   int     `json:"priority_order"`
	Provider        string  `json:"provider"`
	IsActive        bool    `json:"is_active"`
}

func (in APIKeyInput) apply(k *models.APIKey) {
	k.KeyLabel = strings.TrimSpace(in.KeyLabel)
	k.KeyType = in.KeyType
	k.BillingInterval = in.BillingInterval
	k.CostPerMonth = in.CostPerMonth
	k.CostPerYear = in.CostPerYear
	k.UsageLimitSec = in.UsageLimitSec
	k.UsageLimitMin = in.UsageLimitMin
	k.UsageLimit5Min = in.UsageLimit5Min
	k.UsageLimit10Min = in.UsageLimit10Min
	k.UsageLimit15Min = in.UsageLimit15Min
	k.UsageLimitHour = in.UsageLimitHour
	k.UsageLimitDay = in.UsageLimitDay
	k.PriorityOrder = in.PriorityOrder
	k.Provider = in.Provider
	k.IsActive = in.IsActive
	if in.APISecret != "" {
		k.APISecret = in.APISecret
	}
	k.APIKeyIdentifier = models.APIKeyIdentifier(k.APISecret)
}

// APIKeyService manages market data provider keys
type APIKeyService struct {
	repo    APIKeyRepository
	actions AdminActionLogger
	logger  *slog.Logger
}

func NewAPIKeyService(repo APIKeyRepository, actions AdminActionLogger, logger *slog.Logger) *APIKeyService {
	return &APIKeyService{
		repo:    repo,
		actions: actions,
		logger:  logger,
	}
}

func (s *APIKeyService) List(ctx context.Context) ([]*models.APIKey, error) {
	return s.repo.List(ctx)
}

func (s *APIKeyService) Create(ctx context.Context, actorID string, in APIKeyInput) (*models.APIKey, error) {
	if in.APISecret == "" {
		return nil, models.NewFieldError("api_secret", "is required")
	}
	k := &models.APIKey{}
	in.apply(k)

	created, err := s.repo.Create(ctx, k)
	if err != nil {
		return nil, err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionAPIKeyCreated,
		fmt.Sprintf("Created API key %q (%s)", created.KeyLabel, created.APIKeyIdentifier))
	return created, nil
}

// Update replaces a key's fields. An empty api_secret keeps the stored secret.
func (s *APIKeyService) Update(ctx context.Context, actorID string, id int, in APIKeyInput) (*models.APIKey, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(existing)

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionAPIKeyUpdated,
		fmt.Sprintf("Updated API key %d", id))
	return updated, nil
}

func (s *APIKeyService) Delete(ctx context.Context, actorID string, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionAPIKeyDeleted,
		fmt.Sprintf("Deleted API key %d", id))
	return nil
}

// Active returns the active key with the best priority
func (s *APIKeyService) Active(ctx context.Context) (*models.APIKey, error) {
	return s.repo.GetActive(ctx)
}

// MarkFailedByID deactivates a key from the console
func (s *APIKeyService) MarkFailedByID(ctx context.Context, actorID string, id int) error {
	if err := s.repo.MarkFailed(ctx, id); err != nil {
		return err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionAPIKeyFailed,
		fmt.Sprintf("Marked API key %d as failed", id))
	return nil
}

// ActiveSecret returns the secret a provider client should use next
func (s *APIKeyService) ActiveSecret(ctx context.Context) (string, error) {
	k, err := s.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", fmt.Errorf("no active API key: %w", err)
		}
		return "", err
	}
	return k.APISecret, nil
}

// MarkFailed deactivates the key holding secret after the provider rejected it
func (s *APIKeyService) MarkFailed(ctx context.Context, secret string) error {
	if err := s.repo.MarkFailedBySecret(ctx, secret); err != nil {
		return err
	}
	s.logger.Warn("api key marked failed",
		slog.String("api_key_identifier", models.APIKeyIdentifier(secret)))
	s.actions.LogAdminAction(ctx, "", models.ActionAPIKeyFailed,
		fmt.Sprintf("Provider rejected key ending %s", models.APIKeyIdentifier(secret)))
	return nil
}

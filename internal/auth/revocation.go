package auth

import (
	"context"
	"time"
)

// RevocationStore records logged-out or superseded sessions until they expire
type RevocationStore interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type revocationRepository interface {
	Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// PostgresRevocationStore is the default store, backed by session_revocations
type PostgresRevocationStore struct {
	repo revocationRepository
}

func NewPostgresRevocationStore(repo revocationRepository) *PostgresRevocationStore {
	return &PostgresRevocationStore{repo: repo}
}

func (s *PostgresRevocationStore) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	return s.repo.Revoke(ctx, jti, userID, expiresAt)
}

func (s *PostgresRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.repo.IsRevoked(ctx, jti)
}

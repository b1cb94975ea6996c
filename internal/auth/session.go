package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// SessionManager signs and verifies session tokens
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Issue creates a session for the user at the given stage. Each session gets a fresh
// jti so it can be revoked on its own.
func (sm *SessionManager) Issue(user *models.AdminUser, stage string) (string, *models.SessionClaims, error) {
	if stage != models.StageAuthenticated && stage != models.StageResetRequired {
		return "", nil, fmt.Errorf("unknown session stage %q", stage)
	}

	now := sm.now()
	claims := &models.SessionClaims{
		Username: user.Username,
		Role:     user.Role,
		Stage:    stage,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sm.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, claims, nil
}

// Parse verifies the signature, expiry and shape of a session token
func (sm *SessionManager) Parse(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return sm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(sm.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	if claims.Stage != models.StageAuthenticated && claims.Stage != models.StageResetRequired {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

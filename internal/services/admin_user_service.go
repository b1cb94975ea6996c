package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
)

// AdminUserRepository defines the interface for admin user persistence
type AdminUserRepository interface {
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id string) (*models.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	GetByEmailAndPhone(ctx context.Context, email, phoneDigits string) (*models.AdminUser, error)
	List(ctx context.Context) ([]*models.AdminUser, error)
	Create(ctx context.Context, u *models.AdminUser) (*models.AdminUser, error)
	Update(ctx context.Context, u *models.AdminUser, passwordHash *string) (*models.AdminUser, error)
	Delete(ctx context.Context, id string) error
	ReplacePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.AdminUser, error)
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
	CreateIfUsernameAbsent(ctx context.Context, u *models.AdminUser) (bool, error)
	CreateFirstUser(ctx context.Context, u *models.AdminUser) (bool, error)
}

// PermissionRepository defines the interface for tab permission lookups
type PermissionRepository interface {
	HasAccess(ctx context.Context, userID, tab string) (bool, error)
}

// AdminUserInput is the payload for creating or updating an admin user
type AdminUserInput struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Address         string
	Username        string
	Role            string
	Password        string
	ConfirmPassword string
	Access          []string
}

// AdminUserService handles the user management tab
type AdminUserService struct {
	repo        AdminUserRepository
	permissions PermissionRepository
	actions     AdminActionLogger
	policy      pkgauth.PasswordPolicy
	bcryptCost  int
	logger      *slog.Logger
}

func NewAdminUserService(repo AdminUserRepository, permissions PermissionRepository, actions AdminActionLogger, policy pkgauth.PasswordPolicy, bcryptCost int, logger *slog.Logger) *AdminUserService {
	return &AdminUserService{
		repo:        repo,
		permissions: permissions,
		actions:     actions,
		policy:      policy,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func (s *AdminUserService) List(ctx context.Context) ([]*models.AdminUser, error) {
	return s.repo.List(ctx)
}

func (s *AdminUserService) Get(ctx context.Context, id string) (*models.AdminUser, error) {
	return s.repo.GetByID(ctx, id)
}

// Tabs lists the console tabs a user can be granted
func (s *AdminUserService) Tabs() []string {
	return append([]string(nil), models.AllTabs...)
}

// UserHasAccess reports whether userID may use tab. SuperAdmins may use every tab.
func (s *AdminUserService) UserHasAccess(ctx context.Context, userID, tab string) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.IsSuperAdmin() {
		return true, nil
	}
	return s.permissions.HasAccess(ctx, userID, tab)
}

// Create adds an admin with an initial password chosen by the actor. The new
// account must replace that password at first login.
func (s *AdminUserService) Create(ctx context.Context, actorID string, in AdminUserInput) (*models.AdminUser, error) {
	user, err := s.buildUser(in)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, models.NewFieldError("password", "is required")
	}
	hash, err := s.hashChecked(in.Password, in.ConfirmPassword)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRole(ctx, actorID, nil, user.Role); err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.MustReset = true

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin user created",
		slog.String("actor_id", actorID),
		slog.String("user_id", created.ID))
	s.actions.LogAdminAction(ctx, actorID, models.ActionUserCreated,
		fmt.Sprintf("Created user %s", created.Username))
	return created, nil
}

// Update replaces a user's profile and permissions. The password changes only when
// one is given; a password set for someone else forces a reset at their next login.
func (s *AdminUserService) Update(ctx context.Context, actorID, id string, in AdminUserInput) (*models.AdminUser, error) {
	user, err := s.buildUser(in)
	if err != nil {
		return nil, err
	}
	user.ID = id

	var hash *string
	if in.Password != "" {
		h, err := s.hashChecked(in.Password, in.ConfirmPassword)
		if err != nil {
			return nil, err
		}
		hash = &h
		user.MustReset = actorID != id
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRole(ctx, actorID, target, user.Role); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, user, hash)
	if err != nil {
		return nil, err
	}

	s.actions.LogAdminAction(ctx, actorID, models.ActionUserUpdated,
		fmt.Sprintf("Updated user %s", updated.Username))
	return updated, nil
}

func (s *AdminUserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("cannot delete your own account: %w", models.ErrForbidden)
	}
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeRole(ctx, actorID, target, target.Role); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionUserDeleted,
		fmt.Sprintf("Deleted user %s", id))
	return nil
}

func (s *AdminUserService) buildUser(in AdminUserInput) (*models.AdminUser, error) {
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = models.RoleAdmin
	}
	if role != models.RoleAdmin && role != models.RoleSuperAdmin {
		return nil, models.NewFieldError("role", "must be Admin or SuperAdmin")
	}

	access := make([]string, 0, len(in.Access))
	seen := make(map[string]bool, len(in.Access))
	for _, tab := range in.Access {
		if !models.IsValidTab(tab) {
			return nil, models.NewFieldError("access", fmt.Sprintf("unknown tab %q", tab))
		}
		if !seen[tab] {
			seen[tab] = true
			access = append(access, tab)
		}
	}

	return &models.AdminUser{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber: strings.TrimSpace(in.Phone),
		Address:     strings.TrimSpace(in.Address),
		Username:    strings.TrimSpace(in.Username),
		Role:        role,
		Access:      access,
	}, nil
}

// authorizeRole keeps SuperAdmin in SuperAdmin hands: only a SuperAdmin may grant
// the role or touch an account that already holds it. target is nil on create.
func (s *AdminUserService) authorizeRole(ctx context.Context, actorID string, target *models.AdminUser, role string) error {
	if role != models.RoleSuperAdmin && (target == nil || !target.IsSuperAdmin()) {
		return nil
	}
	actor, err := s.repo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("unknown actor %s: %w", actorID, models.ErrForbidden)
		}
		return err
	}
	if !actor.IsSuperAdmin() {
		s.logger.Warn("superadmin change refused",
			slog.String("actor_id", actorID),
			slog.String("role", role))
		return fmt.Errorf("only a SuperAdmin may assign or modify SuperAdmin accounts: %w", models.ErrForbidden)
	}
	return nil
}

func (s *AdminUserService) hashChecked(password, confirm string) (string, error) {
	if password != confirm {
		return "", models.ErrPasswordMismatch
	}
	if err := s.policy.Validate("password", password); err != nil {
		return "", err
	}
	hash, err := pkgauth.HashPasswordWithCost(password, s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

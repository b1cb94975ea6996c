package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AdminUserRepository struct {
	db *database.DB
}

func NewAdminUserRepository(db *database.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

const adminUserColumns = `
	id, first_name, last_name, email, phone_number, address, username, password_hash,
	access_code, role, must_reset, reset_token, reset_token_expires, is_2fa_enabled,
	totp_secret, created_at, updated_at`

func scanAdminUserRow(scanner rowScanner) (*models.AdminUser, error) {
	var u models.AdminUser
	err := scanner.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber, &u.Address,
		&u.Username, &u.PasswordHash, &u.AccessCode, &u.Role, &u.MustReset,
		&u.ResetToken, &u.ResetTokenExpires, &u.Is2FAEnabled, &u.TOTPSecret,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &u, nil
}

func scanAdminUserRows(rows pgx.Rows) ([]*models.AdminUser, error) {
	defer rows.Close()

	users := make([]*models.AdminUser, 0)
	for rows.Next() {
		u, err := scanAdminUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return users, nil
}

func (r *AdminUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count admin users: %w", err)
	}
	return n, nil
}

func (r *AdminUserRepository) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	query := `SELECT ` + adminUserColumns + ` FROM admin_users WHERE id = $1`
	u, err := scanAdminUserRow(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	u.Access, err = listPermissions(ctx, r.db.Pool, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users WHERE username = $1`
	return scanAdminUserRow(r.db.Pool.QueryRow(ctx, query, username))
}

// GetByEmailAndPhone matches email case-insensitively and phone on digits only
func (r *AdminUserRepository) GetByEmailAndPhone(ctx context.Context, email, phoneDigits string) (*models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users
		WHERE LOWER(email) = LOWER($1)
		  AND regexp_replace(phone_number, '[^0-9]', '', 'g') = $2`
	return scanAdminUserRow(r.db.Pool.QueryRow(ctx, query, email, phoneDigits))
}

// List returns every admin ordered by last name with permissions attached
func (r *AdminUserRepository) List(ctx context.Context) ([]*models.AdminUser, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+adminUserColumns+` FROM admin_users ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin users: %w", err)
	}
	users, err := scanAdminUserRows(rows)
	if err != nil {
		return nil, err
	}

	perms, err := listAllPermissions(ctx, r.db.Pool)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Access = perms[u.ID]
	}
	return users, nil
}

// Create inserts the user and its tab permissions in one transaction
func (r *AdminUserRepository) Create(ctx context.Context, u *models.AdminUser) (*models.AdminUser, error) {
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return insertAdminUser(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// firstUserLock serializes first-user registration across connections
const firstUserLock = `SELECT pg_advisory_xact_lock(hashtext('admin_users.first_user'))`

// CreateFirstUser inserts u only while admin_users is empty. It reports whether a
// row was created. Concurrent callers queue on a transaction advisory lock, so at
// most one of them sees the empty table.
func (r *AdminUserRepository) CreateFirstUser(ctx context.Context, u *models.AdminUser) (bool, error) {
	created := false
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, firstUserLock); err != nil {
			return fmt.Errorf("failed to lock first user registration: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM admin_users)`).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}
		if err := insertAdminUser(ctx, tx, u); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func insertAdminUser(ctx context.Context, tx pgx.Tx, u *models.AdminUser) error {
	u.ID = uuid.New().String()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleAdmin
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO admin_users (id, first_name, last_name, email, phone_number, address, username,
			password_hash, access_code, role, must_reset, is_2fa_enabled, totp_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.Address, u.Username,
		u.PasswordHash, u.AccessCode, u.Role, u.MustReset, u.Is2FAEnabled, u.TOTPSecret,
		u.CreatedAt, u.UpdatedAt,
	); err != nil {
		return database.MapPostgresError(err)
	}
	return replacePermissions(ctx, tx, u.ID, u.Access)
}

// Update replaces profile fields and permissions. When a password hash is given it
// is stored together with u.MustReset.
func (r *AdminUserRepository) Update(ctx context.Context, u *models.AdminUser, passwordHash *string) (*models.AdminUser, error) {
	query := `
		UPDATE admin_users
		SET first_name = $1, last_name = $2, email = $3, phone_number = $4, address = $5,
		    username = $6, role = $7, updated_at = NOW()
		WHERE id = $8
	`

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.Address, u.Username, u.Role, u.ID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		if passwordHash != nil {
			if _, err := tx.Exec(ctx,
				`UPDATE admin_users SET password_hash = $1, must_reset = $2 WHERE id = $3`,
				*passwordHash, u.MustReset, u.ID); err != nil {
				return database.MapPostgresError(err)
			}
		}

		return replacePermissions(ctx, tx, u.ID, u.Access)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, u.ID)
}

func (r *AdminUserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM admin_permissions WHERE user_id = $1`, id); err != nil {
			return database.MapPostgresError(err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// ReplacePassword sets a new hash and leaves the forced-reset state. It only
// applies to accounts still flagged must_reset.
func (r *AdminUserRepository) ReplacePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE admin_users
		SET password_hash = $1, must_reset = FALSE, updated_at = NOW()
		WHERE id = $2 AND must_reset = TRUE
	`, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrForbidden
	}
	return nil
}

// SetResetToken stores the hashed reset token, replacing any earlier one
func (r *AdminUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE admin_users
		SET reset_token = $1, reset_token_expires = $2, updated_at = NOW()
		WHERE id = $3
	`, tokenHash, expiresAt, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// FindByResetToken returns the owner of an unexpired reset token
func (r *AdminUserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users
		WHERE reset_token = $1 AND reset_token_expires > $2`
	u, err := scanAdminUserRow(r.db.Pool.QueryRow(ctx, query, tokenHash, now))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrTokenInvalidOrExpired
	}
	return u, err
}

// ConsumeResetToken replaces the password and clears the token in a single statement.
// Only one caller can win for a given token, and an expired token never matches.
func (r *AdminUserRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	var id string
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE admin_users
		SET password_hash = $1, must_reset = FALSE, reset_token = NULL,
		    reset_token_expires = NULL, updated_at = NOW()
		WHERE reset_token = $2 AND reset_token_expires > $3
		RETURNING id
	`, passwordHash, tokenHash, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrTokenInvalidOrExpired
	}
	if err != nil {
		return "", database.MapPostgresError(err)
	}
	return id, nil
}

func (r *AdminUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE admin_users
		SET reset_token = NULL, reset_token_expires = NULL
		WHERE reset_token IS NOT NULL AND reset_token_expires <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateIfUsernameAbsent inserts the user unless the username is taken.
// It reports whether a row was created.
func (r *AdminUserRepository) CreateIfUsernameAbsent(ctx context.Context, u *models.AdminUser) (bool, error) {
	created := false
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM admin_users WHERE username = $1)`, u.Username).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return nil
		}

		u.ID = uuid.New().String()
		if _, err := tx.Exec(ctx, `
			INSERT INTO admin_users (id, first_name, last_name, email, phone_number, address, username,
				password_hash, access_code, role)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, u.ID, u.FirstName, u.LastName, u.Email, u.PhoneNumber, u.Address, u.Username,
			u.PasswordHash, u.AccessCode, u.Role); err != nil {
			return database.MapPostgresError(err)
		}
		if err := replacePermissions(ctx, tx, u.ID, u.Access); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

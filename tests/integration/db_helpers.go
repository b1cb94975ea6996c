package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
)

// TestDB manages PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("chartfly"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Same embedded goose migrations the server applies at startup
	db := database.NewFromPool(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         db,
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"admin_permissions",
		"admin_users",
		"login_attempts",
		"session_revocations",
		"api_keys_table",
		"market_holidays",
		"system_logs",
		"global_settings",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedAdmin describes an account inserted directly into admin_users
type SeedAdmin struct {
	Username  string
	Password  string
	Email     string
	Phone     string
	Role      string
	MustReset bool
	Access    []string
}

// SeedUser inserts an admin with a bcrypt-hashed password and its tab permissions
func SeedUser(ctx context.Context, pool *pgxpool.Pool, seed SeedAdmin) (*models.AdminUser, error) {
	hashedPassword, err := pkgauth.HashPasswordWithCost(seed.Password, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if seed.Role == "" {
		seed.Role = models.RoleAdmin
	}
	if seed.Email == "" {
		seed.Email = seed.Username + "@chartfly.test"
	}

	query := `
		INSERT INTO admin_users (first_name, last_name, email, phone_number, username, password_hash, role, must_reset)
		VALUES ('Test', $1, $2, $3, $1, $4, $5, $6)
		RETURNING id
	`

	user := &models.AdminUser{
		FirstName:   "Test",
		LastName:    seed.Username,
		Email:       seed.Email,
		PhoneNumber: models.NormalizePhone(seed.Phone),
		Username:    seed.Username,
		Role:        seed.Role,
		MustReset:   seed.MustReset,
		Access:      seed.Access,
	}
	err = pool.QueryRow(ctx, query, seed.Username, seed.Email, user.PhoneNumber, hashedPassword, seed.Role, seed.MustReset).
		Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	for _, tab := range seed.Access {
		if _, err := pool.Exec(ctx,
			`INSERT INTO admin_permissions (user_id, tab_name) VALUES ($1, $2)`, user.ID, tab); err != nil {
			return nil, fmt.Errorf("failed to grant %s: %w", tab, err)
		}
	}

	return user, nil
}

// SeedHoliday inserts a market holiday and returns its id
func SeedHoliday(ctx context.Context, pool *pgxpool.Pool, name, date string) (int, error) {
	var id int
	err := pool.QueryRow(ctx, `
		INSERT INTO market_holidays (name, date, year)
		VALUES ($1, $2::date, EXTRACT(YEAR FROM $2::date)::int)
		RETURNING id
	`, name, date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert holiday: %w", err)
	}
	return id, nil
}

// CountRows returns the number of rows in table matching the optional where clause
func CountRows(ctx context.Context, pool *pgxpool.Pool, table, where string, args ...any) (int, error) {
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

package data

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/finvault_portfolio/config"
	"github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"
)

const (
	defaultConnAttempts = 10
	connRetryDelay      = time.Second
)

func PostgresDSN(cfg config.Postgres) string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s password=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.DbName,
		cfg.SSLMode,
		cfg.Password,
	)
}

// NewPostgresClient connects with retries, applies pool limits and runs pending migrations.
// It panics when the database stays unreachable.
func NewPostgresClient(cfg *config.Config) *sqlx.DB {
	db, err := connectPostgres(PostgresDSN(cfg.Postgres), defaultConnAttempts)
	if err != nil {
		slog.Error("Postgres connection failed", slog.String("err", err.Error()))
		panic(err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second)
	slog.Info("Postgres connected", slog.String("host", cfg.Postgres.Host), slog.String("db", cfg.Postgres.DbName))

	if err = MigratePostgres(db, cfg.Postgres.MigrationDir); err != nil {
		slog.Error("postgres migration failed", slog.String("err", err.Error()))
		panic(err)
	}
	slog.Info("postgres migrated successfully")

	return db
}

func connectPostgres(dsn string, attempts int) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	for attempts > 0 {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			return db, nil
		}

		attempts--
		slog.Info("Postgres is trying to connect", slog.Int("attempts left", attempts), slog.String("err", err.Error()))
		time.Sleep(connRetryDelay)
	}

	return nil, fmt.Errorf("connect postgres: %w", err)
}

// MigratePostgres applies every up migration found in migrationDir.
func MigratePostgres(db *sqlx.DB, migrationDir string) error {
	driver, err := migratePostgres.WithInstance(db.DB, &migratePostgres.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationDir),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

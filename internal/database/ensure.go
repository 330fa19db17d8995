package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"socialpost/internal/config"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

var dbNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MaintenanceURL is the pgx URL of the server's "postgres" maintenance database.
func MaintenanceURL(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, sslMode)
}

// EnsureDatabase creates cfg.DBName when it does not exist. It reports whether it created it.
func EnsureDatabase(ctx context.Context, cfg *config.Config) (bool, error) {
	if !dbNamePattern.MatchString(cfg.DBName) {
		return false, fmt.Errorf("invalid database name %q", cfg.DBName)
	}

	sqlDB, err := sql.Open("pgx", MaintenanceURL(cfg))
	if err != nil {
		return false, fmt.Errorf("open maintenance db: %w", err)
	}
	defer sqlDB.Close()

	return ensureDatabase(ctx, sqlDB, cfg.DBName)
}

func ensureDatabase(ctx context.Context, sqlDB *sql.DB, name string) (bool, error) {
	var exists bool
	if err := sqlDB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := sqlDB.ExecContext(ctx, `CREATE DATABASE "`+name+`"`); err != nil {
		return false, fmt.Errorf("create database: %w", err)
	}
	return true, nil
}

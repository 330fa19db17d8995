// Package database handles database connections and schema management.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"socialpost/internal/config"
	"socialpost/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	// DB is the global primary connection.
	DB *gorm.DB
	// readDB is the optional read replica.
	readDB *gorm.DB
)

// ConnectOptions controls side effects of Connect.
type ConnectOptions struct {
	// ApplySchema runs AutoMigrate over PersistentModels after connecting.
	ApplySchema bool
}

// Connect opens the primary database and, outside production, migrates the schema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: !cfg.IsProduction()})
}

// ConnectWithOptions opens the primary database (and replica when DB_READ_HOST is set).
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	db, err := Open(DSN(cfg, cfg.DBHost, cfg.DBName))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	middleware.Logger.Info("Database connected successfully")

	if err := configurePool(db); err != nil {
		return nil, err
	}

	if opts.ApplySchema {
		if err := AutoMigrate(context.Background(), db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		middleware.Logger.Info("Database migration completed")
	}

	if cfg.DBReadHost != "" {
		replica, err := Open(DSN(cfg, cfg.DBReadHost, cfg.DBName))
		if err != nil {
			middleware.Logger.Warn("read replica unavailable, using primary",
				slog.String("host", cfg.DBReadHost), slog.String("error", err.Error()))
		} else {
			useReplica(cfg.DBReadHost, replica)
		}
	}

	DB = db
	return db, nil
}

// Open opens a postgres connection with the slog GORM logger.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), GormConfig())
}

// GormConfig is shared by every connection the service opens, including tests.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                                   NewGormLogger(middleware.Logger),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	}
}

// DSN builds a key/value postgres DSN for host and dbName.
func DSN(cfg *config.Config, host, dbName string) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.DBPort, cfg.DBUser, cfg.DBPassword, dbName, sslMode,
	)
}

func configurePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return nil
}

// useReplica installs replica for reads once its pool is configured.
// On failure reads stay on the primary.
func useReplica(host string, replica *gorm.DB) {
	if err := configurePool(replica); err != nil {
		middleware.Logger.Warn("read replica pool setup failed, using primary",
			slog.String("host", host), slog.String("error", err.Error()))
		return
	}
	readDB = replica
}

// GetReadDB returns the read replica, or nil when none is configured.
func GetReadDB() *gorm.DB {
	return readDB
}

// SetReadDB overrides the read replica (nil restores primary-only reads).
func SetReadDB(db *gorm.DB) {
	readDB = db
}

// Ping checks that db answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the primary and replica connections.
func Close() {
	for _, db := range []*gorm.DB{DB, readDB} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

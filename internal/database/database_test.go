package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"socialpost/internal/config"
	"socialpost/internal/middleware"
	"socialpost/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPersistentModels_IncludesFollowEdges(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*models.Follow); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include Follow")
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestSchemaStatus_SQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	before, err := SchemaStatus(ctx, db)
	require.NoError(t, err)
	for _, st := range before {
		assert.False(t, st.Exists, st.Table)
	}

	require.NoError(t, AutoMigrate(ctx, db))

	after, err := SchemaStatus(ctx, db)
	require.NoError(t, err)
	tables := map[string]bool{}
	for _, st := range after {
		tables[st.Table] = st.Exists
	}
	for _, name := range []string{"users", "follows", "notifications", "conversations", "messages", "posts", "likes", "comments"} {
		assert.True(t, tables[name], name)
	}
}

func TestEnsureDatabase(t *testing.T) {
	tests := []struct {
		name    string
		exists  bool
		created bool
	}{
		{"already exists", true, false},
		{"created", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer sqlDB.Close()

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`)).
				WithArgs("socialpost").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			if !tt.exists {
				mock.ExpectExec(regexp.QuoteMeta(`CREATE DATABASE "socialpost"`)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			}

			created, err := ensureDatabase(context.Background(), sqlDB, "socialpost")
			require.NoError(t, err)
			assert.Equal(t, tt.created, created)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEnsureDatabase_RejectsBadName(t *testing.T) {
	_, err := EnsureDatabase(context.Background(), &config.Config{DBName: `x"; DROP TABLE users; --`})
	assert.Error(t, err)
}

func TestDSNAndMaintenanceURL(t *testing.T) {
	cfg := &config.Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "app"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=app sslmode=disable", DSN(cfg, cfg.DBHost, cfg.DBName))
	assert.Equal(t, "postgres://u:p@h:5432/postgres?sslmode=disable", MaintenanceURL(cfg))
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(ctx, time.Now(), query, errors.New("boom"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now(), query, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestPing(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))

	assert.NoError(t, Ping(context.Background(), openSQLite(t)))
}

func TestUseReplica(t *testing.T) {
	var buf bytes.Buffer
	prev := middleware.Logger
	middleware.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	t.Cleanup(func() {
		middleware.Logger = prev
		SetReadDB(nil)
	})

	useReplica("replica.internal", &gorm.DB{Config: &gorm.Config{}})
	assert.Nil(t, GetReadDB(), "broken replica must not serve reads")
	assert.Contains(t, buf.String(), "read replica pool setup failed")
	assert.Contains(t, buf.String(), "replica.internal")

	replica := openSQLite(t)
	useReplica("replica.internal", replica)
	assert.Same(t, replica, GetReadDB())
}

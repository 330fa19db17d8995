package database

import (
	"context"
	"fmt"

	"socialpost/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
	}
}

// AutoMigrate creates or updates every registered table.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(PersistentModels()...)
}

// TableStatus reports whether a registered table exists.
type TableStatus struct {
	Table  string
	Exists bool
}

// SchemaStatus lists every registered table and whether it exists in db.
func SchemaStatus(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	migrator := db.WithContext(ctx).Migrator()
	out := make([]TableStatus, 0, len(PersistentModels()))
	for _, m := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", m, err)
		}
		out = append(out, TableStatus{
			Table:  stmt.Schema.Table,
			Exists: migrator.HasTable(m),
		})
	}
	return out, nil
}

package repository

import (
	"context"

	"socialpost/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository stores notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	// MarkPendingFollowRead resolves unread follow notifications sent by fromID to toID.
	MarkPendingFollowRead(ctx context.Context, fromID, toID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewDependencyError(err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, storeError(err, "Notification", id)
	}
	return &n, nil
}

// ListForUser returns the newest notifications for userID with sender and post attached.
func (r *notificationRepository) ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var list []models.Notification
	err := readDB(r.db).WithContext(ctx).
		Preload("From", summaryColumns).
		Preload("Post").
		Where("to_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, 50, 50)).
		Find(&list).Error
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	return list, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return models.NewDependencyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewDependencyError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) MarkPendingFollowRead(ctx context.Context, fromID, toID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("from_id = ? AND to_id = ? AND type = ? AND read = ?", fromID, toID, models.NotificationFollow, false).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewDependencyError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Notification{}, id)
	if res.Error != nil {
		return models.NewDependencyError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

// CountUnread reads the primary so counts reflect the caller's own writes.
func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("to_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewDependencyError(err)
	}
	return count, nil
}

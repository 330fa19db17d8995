package service

import (
	"context"
	"log/slog"

	"socialpost/internal/middleware"
	"socialpost/internal/models"
	"socialpost/internal/observability"
	"socialpost/internal/repository"
)

// MaxNotifications caps a notification listing.
const MaxNotifications = 50

// NotificationService owns the notification store. Only the recipient may read,
// flip or delete a notification.
type NotificationService struct {
	repo      repository.NotificationRepository
	publisher EventPublisher
}

// NewNotificationService accepts a nil publisher.
func NewNotificationService(repo repository.NotificationRepository, publisher EventPublisher) *NotificationService {
	return &NotificationService{repo: repo, publisher: publisher}
}

// Emit stores n and then announces it. A failed announcement is logged only.
func (s *NotificationService) Emit(ctx context.Context, n *models.Notification) error {
	if !n.Type.Valid() {
		return models.NewValidationError("Unknown notification type")
	}
	if n.FromID == 0 || n.ToID == 0 {
		return models.NewValidationError("Notification requires a sender and a recipient")
	}
	n.Read = false
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()

	if s.publisher != nil {
		if err := s.publisher.NotificationCreated(ctx, n); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification event",
				slog.Uint64("notification_id", uint64(n.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// ResolvePendingFollow marks unread follow notifications from fromID to toID as read.
func (s *NotificationService) ResolvePendingFollow(ctx context.Context, fromID, toID uint) error {
	_, err := s.repo.MarkPendingFollowRead(ctx, fromID, toID)
	return err
}

// List returns the newest notifications for userID, at most MaxNotifications.
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > MaxNotifications {
		limit = MaxNotifications
	}
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *NotificationService) owned(ctx context.Context, userID, id uint) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ToID != userID {
		return nil, models.NewForbiddenError("Not authorized")
	}
	return n, nil
}

// MarkRead flips one notification and returns it.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error) {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !n.Read {
		if err := s.repo.MarkRead(ctx, id); err != nil {
			return nil, err
		}
		n.Read = true
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// UnreadCount is a fresh count of the user's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

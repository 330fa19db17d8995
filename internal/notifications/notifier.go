package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialpost/internal/cache"
	"socialpost/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventNotificationCreated is the event type published when a notification is stored.
const EventNotificationCreated = "notification_created"

// Event is the JSON envelope published on a user's notification channel.
type Event struct {
	Type      string               `json:"type"`
	Payload   *models.Notification `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
}

// Notifier publishes notification events to Redis. There is no client push in this
// service, the channel is a hook for other consumers.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier accepts a nil client, in which case every publish is a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to the user's notification channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, cache.NotificationChannel(userID), payload).Err()
}

// NotificationCreated publishes a notification_created event to the recipient's channel.
func (n *Notifier) NotificationCreated(ctx context.Context, notification *models.Notification) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	body, err := json.Marshal(Event{
		Type:      EventNotificationCreated,
		Payload:   notification,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	return n.PublishUser(ctx, notification.ToID, string(body))
}

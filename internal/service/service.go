// Package service holds the business logic behind the HTTP handlers: the follow graph,
// the mutual-follow messaging gate, notifications, unread accounting, accounts and posts.
package service

import (
	"context"

	"socialpost/internal/models"
	"socialpost/internal/notifications"
)

// SideEffects schedules best-effort work that must not change the result of the
// operation that triggered it. *notifications.Dispatcher satisfies it.
type SideEffects interface {
	Go(ctx context.Context, name string, job notifications.Job)
}

// EventPublisher announces stored notifications to other consumers.
// *notifications.Notifier satisfies it.
type EventPublisher interface {
	NotificationCreated(ctx context.Context, n *models.Notification) error
}

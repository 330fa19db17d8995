package service

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// UnreadCounts is the badge payload for the navigation bar.
type UnreadCounts struct {
	Notifications int64 `json:"notifications"`
	Messages      int64 `json:"messages"`
}

// UnreadService computes both unread aggregates fresh on every call.
type UnreadService struct {
	notifications *NotificationService
	messaging     *MessagingService
}

func NewUnreadService(notifications *NotificationService, messaging *MessagingService) *UnreadService {
	return &UnreadService{notifications: notifications, messaging: messaging}
}

func (s *UnreadService) Counts(ctx context.Context, userID uint) (*UnreadCounts, error) {
	var counts UnreadCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.notifications.UnreadCount(gctx, userID)
		counts.Notifications = n
		return err
	})
	g.Go(func() error {
		n, err := s.messaging.UnreadMessageCount(gctx, userID)
		counts.Messages = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &counts, nil
}

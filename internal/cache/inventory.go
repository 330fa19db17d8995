package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix             = "user:%d"
	NotificationChannelPrefix = "notifications:user:%d"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// NotificationChannel is the pub/sub channel carrying a user's notification events.
func NotificationChannel(userID uint) string {
	return fmt.Sprintf(NotificationChannelPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

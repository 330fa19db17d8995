package models

import "time"

// NotificationType enumerates the events a user can be notified about.
type NotificationType string

const (
	// NotificationFollow is sent when someone starts following the recipient.
	NotificationFollow NotificationType = "follow"
	// NotificationFollowAccepted is sent when someone follows the recipient back.
	NotificationFollowAccepted NotificationType = "follow_accepted"
	// NotificationLike is sent when someone likes the recipient's post.
	NotificationLike NotificationType = "like"
	// NotificationComment is sent when someone comments on the recipient's post.
	NotificationComment NotificationType = "comment"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationFollow, NotificationFollowAccepted, NotificationLike, NotificationComment:
		return true
	}
	return false
}

// Notification is an event directed at the user ToID. Only Read ever changes.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Type      NotificationType `gorm:"type:varchar(32);not null;index:idx_notifications_pending,priority:3" json:"type"`
	FromID    uint             `gorm:"not null;index:idx_notifications_pending,priority:2" json:"from_id"`
	ToID      uint             `gorm:"not null;index:idx_notifications_to_read,priority:1;index:idx_notifications_pending,priority:1" json:"to_id"`
	PostID    *uint            `gorm:"index" json:"post_id,omitempty"`
	Message   string           `gorm:"type:text" json:"message"`
	Read      bool             `gorm:"not null;default:false;index:idx_notifications_to_read,priority:2" json:"read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`

	From *User `gorm:"foreignKey:FromID" json:"from,omitempty"`
	Post *Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

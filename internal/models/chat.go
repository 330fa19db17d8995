package models

import (
	"fmt"
	"time"
)

// Conversation is the single container for all messages between two users.
// SenderID is whoever created it; access never depends on which side that is.
type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SenderID      uint      `gorm:"not null;index" json:"sender_id"`
	ReceiverID    uint      `gorm:"not null;index" json:"receiver_id"`
	PairKey       string    `gorm:"size:64;not null;uniqueIndex" json:"-"`
	LastMessageID *uint     `json:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`

	Sender      *User    `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver    *User    `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	LastMessage *Message `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`

	UnreadCount int64     `gorm:"-" json:"unread_count"`
	Messages    []Message `gorm:"-" json:"messages,omitempty"`
}

// TableName specifies the table name for GORM
func (Conversation) TableName() string {
	return "conversations"
}

// PairKey returns the order-independent key of the pair (a, b).
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// HasParticipant reports whether userID is one of the two sides.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}

// OtherParticipant returns the side that is not userID.
func (c *Conversation) OtherParticipant(userID uint) uint {
	if c.SenderID == userID {
		return c.ReceiverID
	}
	return c.SenderID
}

// Message is a single entry in a conversation.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	Read           bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

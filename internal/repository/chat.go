package repository

import (
	"context"
	"errors"
	"time"

	"socialpost/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository stores one-to-one conversations and their messages.
type ChatRepository interface {
	GetByPair(ctx context.Context, a, b uint) (*models.Conversation, error)
	// CreateIfAbsent inserts conv unless its pair already has a conversation and
	// returns whichever row is stored.
	CreateIfAbsent(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	Messages(ctx context.Context, conversationID uint) ([]models.Message, error)
	AppendMessage(ctx context.Context, conversationID uint, msg *models.Message) error
	MarkRead(ctx context.Context, conversationID, senderID uint) (int64, error)
	GetMessage(ctx context.Context, id uint) (*models.Message, error)
	DeleteMessage(ctx context.Context, msg *models.Message) error
	UnreadByConversation(ctx context.Context, userID uint) (map[uint]int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository returns a new ChatRepository implementation.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender", summaryColumns).Preload("Receiver", summaryColumns)
}

// GetByPair returns nil, nil when a and b have no conversation yet.
func (r *chatRepository) GetByPair(ctx context.Context, a, b uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := preloadParticipants(r.db.WithContext(ctx)).
		Where("pair_key = ?", models.PairKey(a, b)).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	return &conv, nil
}

func (r *chatRepository) CreateIfAbsent(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	conv.PairKey = models.PairKey(conv.SenderID, conv.ReceiverID)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "pair_key"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(conv).Error
	if err != nil {
		return nil, models.NewDependencyError(err)
	}

	stored, err := r.GetByPair(ctx, conv.SenderID, conv.ReceiverID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, models.NewDependencyError(errors.New("conversation vanished after insert"))
	}
	return stored, nil
}

// ListForUser returns userID's conversations by most recent activity.
func (r *chatRepository) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := preloadParticipants(r.db.WithContext(ctx)).
		Preload("LastMessage").
		Where("(sender_id = ? OR receiver_id = ?)", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	return convs, nil
}

// Messages returns the conversation's messages oldest first.
func (r *chatRepository) Messages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender", summaryColumns).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewDependencyError(err)
	}
	return msgs, nil
}

// AppendMessage inserts msg and moves the conversation's last-message pointer in one transaction.
func (r *chatRepository) AppendMessage(ctx context.Context, conversationID uint, msg *models.Message) error {
	msg.ConversationID = conversationID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"last_message_id": msg.ID,
				"updated_at":      time.Now(),
			}).Error
	})
	if err != nil {
		return models.NewDependencyError(err)
	}
	return nil
}

// MarkRead flags every unread message from senderID in the conversation as read.
func (r *chatRepository) MarkRead(ctx context.Context, conversationID, senderID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id = ? AND read = ?", conversationID, senderID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewDependencyError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *chatRepository) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, storeError(err, "Message", id)
	}
	return &msg, nil
}

// DeleteMessage removes msg. When it was the conversation's last message the
// pointer moves to the newest remaining message, or NULL when none remain.
func (r *chatRepository) DeleteMessage(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Message{}, msg.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var conv models.Conversation
		if err := tx.Select("id", "last_message_id").First(&conv, msg.ConversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if conv.LastMessageID == nil || *conv.LastMessageID != msg.ID {
			return nil
		}

		var newest models.Message
		err := tx.Select("id").
			Where("conversation_id = ?", msg.ConversationID).
			Order("created_at DESC, id DESC").
			First(&newest).Error
		var next interface{}
		switch {
		case err == nil:
			next = newest.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			next = nil
		default:
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			UpdateColumn("last_message_id", next).Error
	})
	if err != nil {
		return storeError(err, "Message", msg.ID)
	}
	return nil
}

type unreadRow struct {
	ConversationID uint
	Unread         int64
}

// UnreadByConversation counts, per conversation of userID, unread messages sent by the other side.
func (r *chatRepository) UnreadByConversation(ctx context.Context, userID uint) (map[uint]int64, error) {
	var rows []unreadRow
	err := r.unreadQuery(ctx, userID).
		Select("messages.conversation_id AS conversation_id, COUNT(*) AS unread").
		Group("messages.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewDependencyError(err)
	}

	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.ConversationID] = row.Unread
	}
	return out, nil
}

// CountUnread totals unread incoming messages across all of userID's conversations.
func (r *chatRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.unreadQuery(ctx, userID).Count(&count).Error; err != nil {
		return 0, models.NewDependencyError(err)
	}
	return count, nil
}

func (r *chatRepository) unreadQuery(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.sender_id = ? OR conversations.receiver_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.read = ?", userID, false)
}

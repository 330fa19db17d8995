package service

import (
	"context"
	"strings"

	"socialpost/internal/models"
	"socialpost/internal/observability"
	"socialpost/internal/repository"
)

const notMutualMessage = "You can only message users who follow you back"

// ConversationView is an opened conversation with its messages oldest first.
type ConversationView struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []models.Message     `json:"messages"`
}

// SendMessageInput is the payload of a direct message.
type SendMessageInput struct {
	SenderID   uint
	ReceiverID uint
	Text       string
}

// MessagingService gates every conversation read and write on a mutual follow and keeps
// exactly one conversation per unordered pair of users.
type MessagingService struct {
	chats         repository.ChatRepository
	users         repository.UserRepository
	relationships *RelationshipService
}

func NewMessagingService(
	chats repository.ChatRepository,
	users repository.UserRepository,
	relationships *RelationshipService,
) *MessagingService {
	return &MessagingService{chats: chats, users: users, relationships: relationships}
}

// AuthorizeConversation reports whether a and b may exchange messages.
func (s *MessagingService) AuthorizeConversation(ctx context.Context, a, b uint) (bool, error) {
	return s.relationships.IsMutual(ctx, a, b)
}

func (s *MessagingService) requireMutual(ctx context.Context, operation string, a, b uint) error {
	ok, err := s.AuthorizeConversation(ctx, a, b)
	if err != nil {
		return err
	}
	if !ok {
		observability.MessagingDenied.WithLabelValues(operation).Inc()
		return models.NewForbiddenError(notMutualMessage)
	}
	return nil
}

// GetOrCreateConversation returns the pair's conversation, creating it with a as the
// stored sender when none exists. Concurrent callers converge on the same row.
// Callers are expected to have authorized the pair.
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, a, b uint) (*models.Conversation, error) {
	if a == b {
		return nil, models.NewValidationError("Cannot start a conversation with yourself")
	}
	conv, err := s.chats.GetByPair(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}
	return s.chats.CreateIfAbsent(ctx, &models.Conversation{SenderID: a, ReceiverID: b})
}

// SendMessage appends an unread message from in.SenderID to in.ReceiverID.
func (s *MessagingService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	if in.ReceiverID == 0 || strings.TrimSpace(in.Text) == "" {
		return nil, models.NewValidationError("Receiver and text are required")
	}
	if err := s.requireMutual(ctx, "send", in.SenderID, in.ReceiverID); err != nil {
		return nil, err
	}

	conv, err := s.GetOrCreateConversation(ctx, in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{SenderID: in.SenderID, Text: in.Text}
	if err := s.chats.AppendMessage(ctx, conv.ID, msg); err != nil {
		return nil, err
	}
	observability.MessagesSent.Inc()

	if sender, err := s.users.GetByID(ctx, in.SenderID); err == nil {
		msg.Sender = sender
	}
	return msg, nil
}

// OpenConversation returns the conversation between viewerID and otherID with its
// messages, then marks the messages otherID sent as read. The returned messages show
// the read state from before the update.
func (s *MessagingService) OpenConversation(ctx context.Context, viewerID, otherID uint) (*ConversationView, error) {
	if err := s.requireMutual(ctx, "open", viewerID, otherID); err != nil {
		return nil, err
	}

	conv, err := s.GetOrCreateConversation(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.chats.Messages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.chats.MarkRead(ctx, conv.ID, otherID); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return &ConversationView{Conversation: conv, Messages: msgs}, nil
}

// DeleteMessage removes a message. Only its sender may delete it.
func (s *MessagingService) DeleteMessage(ctx context.Context, requesterID, messageID uint) error {
	msg, err := s.chats.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return models.NewForbiddenError("Not authorized")
	}
	return s.chats.DeleteMessage(ctx, msg)
}

// ListConversations returns userID's conversations by latest activity, each with the
// number of unread messages the other participant sent.
func (s *MessagingService) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	convs, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.chats.UnreadByConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		convs[i].UnreadCount = unread[convs[i].ID]
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}

// UnreadMessageCount totals unread incoming messages across userID's conversations.
func (s *MessagingService) UnreadMessageCount(ctx context.Context, userID uint) (int64, error) {
	return s.chats.CountUnread(ctx, userID)
}

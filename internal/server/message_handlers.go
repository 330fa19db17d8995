package server

import (
	"socialpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetConversations handles GET /api/messages
// @Summary List conversations
// @Description Conversations the caller takes part in, with per-conversation unread counts
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Conversation
// @Router /messages [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	conversations, err := s.messaging.ListConversations(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(conversations)
}

// GetUnreadMessageCount handles GET /api/messages/unread/count
// @Summary Unread message count
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{count=int}
// @Router /messages/unread/count [get]
func (s *Server) GetUnreadMessageCount(c *fiber.Ctx) error {
	count, err := s.messaging.UnreadMessageCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// OpenConversation handles GET /api/messages/:userId
// @Summary Open conversation
// @Description Requires a mutual follow. Messages from the other user are marked read.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Other user ID"
// @Success 200 {object} service.ConversationView
// @Failure 403 {object} models.ErrorResponse
// @Router /messages/{userId} [get]
func (s *Server) OpenConversation(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	view, err := s.messaging.OpenConversation(c.UserContext(), currentUserID(c), otherID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// SendMessage handles POST /api/messages
// @Summary Send message
// @Description Requires a mutual follow with the receiver
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{receiverId=int,text=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req struct {
		ReceiverID uint   `json:"receiverId"`
		Text       string `json:"text"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	msg, err := s.messaging.SendMessage(c.UserContext(), service.SendMessageInput{
		SenderID:   currentUserID(c),
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// DeleteMessage handles DELETE /api/messages/:messageId
// @Summary Delete message
// @Description Only the sender may delete a message
// @Tags messages
// @Security BearerAuth
// @Param messageId path int true "Message ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{messageId} [delete]
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "messageId")
	if err != nil {
		return nil
	}

	if err := s.messaging.DeleteMessage(c.UserContext(), currentUserID(c), messageID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Message deleted"})
}

// GetUnreadCounts handles GET /api/unread
// @Summary Unread counts
// @Description Unread notifications and unread messages addressed to the caller
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.UnreadCounts
// @Router /unread [get]
func (s *Server) GetUnreadCounts(c *fiber.Ctx) error {
	counts, err := s.unread.Counts(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(counts)
}

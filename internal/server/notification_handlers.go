package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List notifications
// @Description Newest first, at most 50
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit"
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notifications.List(c.UserContext(), currentUserID(c), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetUnreadNotificationCount handles GET /api/notifications/unread/count
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{count=int}
// @Router /notifications/unread/count [get]
func (s *Server) GetUnreadNotificationCount(c *fiber.Ctx) error {
	count, err := s.notifications.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkAllNotificationsRead handles PUT /api/notifications/read-all
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{updated=int}
// @Router /notifications/read-all [put]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.notifications.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// MarkNotificationRead handles PUT /api/notifications/:notificationId/read
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationId path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{notificationId}/read [put]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "notificationId")
	if err != nil {
		return nil
	}

	n, err := s.notifications.MarkRead(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(n)
}

// DeleteNotification handles DELETE /api/notifications/:notificationId
// @Summary Delete notification
// @Tags notifications
// @Security BearerAuth
// @Param notificationId path int true "Notification ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{notificationId} [delete]
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := s.parseID(c, "notificationId")
	if err != nil {
		return nil
	}

	if err := s.notifications.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification deleted"})
}

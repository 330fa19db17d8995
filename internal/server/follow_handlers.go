package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleFollow handles POST /api/users/:userId/follow
// @Summary Follow or unfollow
// @Description Flips the caller's follow edge to the user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} service.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId}/follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	result, err := s.relationships.ToggleFollow(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetRelationshipStats handles GET /api/users/:userId/stats
// @Summary Relationship stats
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.RelationshipStats
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId}/stats [get]
func (s *Server) GetRelationshipStats(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	stats, err := s.relationships.Stats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetFollowers handles GET /api/users/:userId/followers
// @Summary Followers
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /users/{userId}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	users, err := s.relationships.Followers(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:userId/following
// @Summary Following
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /users/{userId}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	users, err := s.relationships.Following(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetRelationship handles GET /api/users/:userId/relationship
// @Summary Relationship to a user
// @Description Whether the caller follows, is followed by, or mutually follows the user
// @Tags follows
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.Relationship
// @Router /users/{userId}/relationship [get]
func (s *Server) GetRelationship(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	rel, err := s.relationships.Relationship(c.UserContext(), currentUserID(c), otherID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rel)
}

package server

import (
	"net/url"

	"socialpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Get current user profile
// @Description Own profile with follower and following summaries
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/profile
// @Summary Update current user profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,bio=string,profile_pic=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name       *string `json:"name"`
		Bio        *string `json:"bio"`
		ProfilePic *string `json:"profile_pic"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		Name:       req.Name,
		Bio:        req.Bio,
		ProfilePic: req.ProfilePic,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ListUsers handles GET /api/users
// @Summary List users
// @Description Everyone except the caller
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {array} models.UserSummary
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.userService.ListUsers(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// SearchUsers handles GET /api/users/search/query/:query and GET /api/users/search?q=
// @Summary Search users
// @Description Case-insensitive match on name or username
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Success 200 {array} models.UserSummary
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	query := c.Query("q")
	if raw := c.Params("query"); raw != "" {
		if decoded, err := url.PathUnescape(raw); err == nil {
			query = decoded
		} else {
			query = raw
		}
	}

	page := parsePagination(c, 20)
	users, err := s.userService.SearchUsers(c.UserContext(), currentUserID(c), query, page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /api/users/:userId
// @Summary Get user
// @Description Public profile; email is only shown to its owner
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.UserContext(), currentUserID(c), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

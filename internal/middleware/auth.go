package middleware

import (
	"context"
	"errors"
	"strings"

	"socialpost/internal/auth"
	"socialpost/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenAuthenticator resolves a bearer token into its claims.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthRequired enforces a valid bearer token and stores the caller in
// c.Locals("userID") and c.Locals("claims").
func AuthRequired(authn TokenAuthenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := authn.Authenticate(c.UserContext(), token)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, auth.ErrRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		userID, err := claims.UserID()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		c.Locals("userID", userID)
		c.Locals("claims", claims)
		c.SetUserContext(WithUserID(c.UserContext(), userID))

		return c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

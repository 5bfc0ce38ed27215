package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/farmstellar/internal/config"
	"github.com/example/farmstellar/internal/utils"
)

const userContextKey = "currentUserID"

// AuthMiddleware validates bearer JWTs and loads the authenticated user ID
// into the request context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or invalid authorization header")
		}

		userID, err := utils.ParseToken(cfg.JWTSecret, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		return c.Next()
	}
}

// BearerToken extracts the raw bearer token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

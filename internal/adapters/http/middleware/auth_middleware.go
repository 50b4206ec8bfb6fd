package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"salonq/internal/config"
	"salonq/internal/core/domain"
	"salonq/internal/pkg/jwt"
	"salonq/internal/pkg/response"
)

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth doesn't require auth but sets user info if a valid token is present
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := bearerToken(c); accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// StreamAuth is OptionalAuth that also reads an access_token query parameter.
// EventSource cannot set headers, so only the event stream route uses it.
func StreamAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := bearerToken(c)
		if accessToken == "" {
			accessToken = c.Query("access_token")
		}
		if accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// Actor returns the caller attached by AuthMiddleware or OptionalAuth.
// The zero Actor means anonymous.
func Actor(c *fiber.Ctx) domain.Actor {
	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	return domain.Actor{UserID: userID, Role: domain.Role(role)}
}

// UserIDPtr returns the caller's id or nil when anonymous
func UserIDPtr(c *fiber.Ctx) *uint {
	userID, ok := c.Locals("userID").(uint)
	if !ok || userID == 0 {
		return nil
	}
	return &userID
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

func setClaims(c *fiber.Ctx, claims *jwt.Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("role", claims.Role)
}

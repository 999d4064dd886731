package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/services"
)

// SessionCookie is the cookie carrying the session token for browser clients.
const SessionCookie = "session"

const (
	localUserID   = "user_id"
	localUsername = "username"
)

// SessionValidator resolves a session token to an identity.
type SessionValidator interface {
	ValidateToken(token string) (*services.Session, error)
}

// bearerToken returns the token from the Authorization header, falling back
// to the session cookie.
func bearerToken(c *fiber.Ctx) (string, bool) {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie, true
	}
	return "", false
}

// AuthRequired rejects requests without a valid session with 401.
func AuthRequired(sessions SessionValidator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		session, err := sessions.ValidateToken(token)
		if err != nil {
			logger.Debug("Session validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}

		c.Locals(localUserID, session.UserID)
		c.Locals(localUsername, session.Username)
		return c.Next()
	}
}

// OptionalAuth attaches the identity when a valid session is present and
// otherwise lets the request through anonymously.
func OptionalAuth(sessions SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if session, err := sessions.ValidateToken(token); err == nil {
				c.Locals(localUserID, session.UserID)
				c.Locals(localUsername, session.Username)
			}
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// SyncSecret guards the catalog sync trigger with "Bearer <secret>". An unset
// secret is reported as a server misconfiguration rather than an auth failure.
func SyncSecret(secret string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			logger.Error("Sync trigger called but CRON_SECRET is not configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Cron job not configured"})
		}
		expected := []byte("Bearer " + secret)
		if subtle.ConstantTimeCompare([]byte(c.Get(fiber.HeaderAuthorization)), expected) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}

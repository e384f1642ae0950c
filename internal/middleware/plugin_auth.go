package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/nekowy/messy-protect-service/internal/config"
	"github.com/nekowy/messy-protect-service/internal/dto"
)

// PluginAuth authenticates the game-server plugin via the mp-api-key header.
// A mismatch is terminal: no handler runs, no state changes.
func PluginAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("mp-api-key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(cfg.MPAPIKey)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "Invalid API Key",
			})
		}
		return c.Next()
	}
}

// AdminSecret guards the stats endpoint via the x-admin-secret header.
func AdminSecret(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := c.Get("x-admin-secret")
		if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.DBSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "Unauthorized",
			})
		}
		return c.Next()
	}
}

package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nekowy/messy-protect-service/internal/dto"
	"github.com/nekowy/messy-protect-service/internal/proxy"
)

const proxyLikeKey = "proxyLike"

// AntiProxy classifies the request IP before gated endpoints run. A hit in the
// known-proxy set is a hard rejection; a reputation-flagged IP only marks the
// request so the handler can refuse the gated operation itself.
func AntiProxy(gate *proxy.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch gate.Classify(c.UserContext(), c.IP()) {
		case proxy.Denied:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "Access Denied: Proxy Detected",
			})
		case proxy.ProxyLike:
			c.Locals(proxyLikeKey, true)
		}
		return c.Next()
	}
}

// IsProxyLike reports whether AntiProxy flagged this request.
func IsProxyLike(c *fiber.Ctx) bool {
	flagged, _ := c.Locals(proxyLikeKey).(bool)
	return flagged
}

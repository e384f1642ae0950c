package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/nekowy/messy-protect-service/internal/config"
	"github.com/nekowy/messy-protect-service/internal/handlers"
	"github.com/nekowy/messy-protect-service/internal/middleware"
	"github.com/nekowy/messy-protect-service/internal/proxy"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	gate *proxy.Gate,
	accountHandler *handlers.AccountHandler,
	adminHandler *handlers.AdminHandler,
	syncHandler *handlers.SyncHandler,
	healthHandler *handlers.HealthHandler,
) {
	antiProxy := middleware.AntiProxy(gate)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Registration gets a stricter limit on top of the proxy gate.
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", antiProxy, accountHandler.Register)
	auth.Post("/login", accountHandler.Login)

	api.Post("/user/whitelist", antiProxy, accountHandler.SetWhitelist)

	api.Post("/admin/check", adminHandler.Check)
	api.Post("/admin/action", adminHandler.Action)
	api.Get("/admin/stats", middleware.AdminSecret(cfg), adminHandler.Stats)

	// Pull endpoint for the game-server plugin, shared-secret only.
	mpapi := app.Group("/mpapi", middleware.PluginAuth(cfg))
	mpapi.Get("/tasks", syncHandler.Tasks)
	mpapi.Get("/complete", syncHandler.Complete)
}

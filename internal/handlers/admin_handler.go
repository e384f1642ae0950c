package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nekowy/messy-protect-service/internal/config"
	"github.com/nekowy/messy-protect-service/internal/dto"
	"github.com/nekowy/messy-protect-service/internal/services"
)

type AdminHandler struct {
	cfg      *config.Config
	accounts *services.AccountService
	stats    *services.StatsService
}

func NewAdminHandler(cfg *config.Config, accounts *services.AccountService, stats *services.StatsService) *AdminHandler {
	return &AdminHandler{cfg: cfg, accounts: accounts, stats: stats}
}

// Check confirms an admin secret without side effects, used by the frontend to
// unlock the panel.
func (h *AdminHandler) Check(c *fiber.Ctx) error {
	var req dto.AdminCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if !h.secretValid(req.Secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.AdminCheckResponse{Success: false})
	}
	return c.JSON(dto.AdminCheckResponse{Success: true, Admin: true})
}

func (h *AdminHandler) Action(c *fiber.Ctx) error {
	var req dto.AdminActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	if !h.secretValid(req.Secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	message, err := h.accounts.AdminAction(req.Action, req.Target, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "User not found"})
		case errors.Is(err, services.ErrUnknownAction):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid action"})
		case errors.Is(err, services.ErrValueRequired):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Value required"})
		}
		slog.Error("admin action failed", "action", req.Action, "target", req.Target, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Server Error"})
	}

	return c.JSON(dto.MessageResponse{Success: true, Message: message})
}

// Stats serves the admin panel aggregate view. The route is guarded by the
// AdminSecret middleware.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.Stats()
	if err != nil {
		slog.Error("stats query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Stats Error"})
	}
	return c.JSON(stats)
}

func (h *AdminHandler) secretValid(secret string) bool {
	return secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.DBSecret)) == 1
}

package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/nekowy/messy-protect-service/internal/config"
	"github.com/nekowy/messy-protect-service/internal/dto"
	"github.com/nekowy/messy-protect-service/internal/services"
)

// SyncHandler is the pull endpoint for the game-server plugin. The plugin
// polls Tasks on its own interval, applies what it gets, and reports each task
// done via Complete. Storage failures are transient from the plugin's point of
// view: it just retries on the next interval.
type SyncHandler struct {
	cfg    *config.Config
	outbox *services.OutboxService
}

func NewSyncHandler(cfg *config.Config, outbox *services.OutboxService) *SyncHandler {
	return &SyncHandler{cfg: cfg, outbox: outbox}
}

// Tasks returns every pending task with its payload decrypted, oldest-first.
// Re-polling before acknowledging redelivers the same tasks; the plugin
// applies them idempotently.
func (h *SyncHandler) Tasks(c *fiber.Ctx) error {
	tasks, err := h.outbox.Pending()
	if err != nil {
		slog.Error("task poll failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "DB Error",
			"verify": h.cfg.VerificationKey,
		})
	}

	return c.JSON(dto.TaskListResponse{Tasks: tasks, Verify: h.cfg.VerificationKey})
}

// Complete acknowledges a task by id and deletes it. Acknowledging an id that
// is already gone still succeeds so the plugin can retry after a network blip.
func (h *SyncHandler) Complete(c *fiber.Ctx) error {
	taskID, err := strconv.ParseUint(c.Query("task"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid ID",
			"verify": h.cfg.VerificationKey,
		})
	}

	if err := h.outbox.Acknowledge(uint(taskID)); err != nil {
		slog.Error("task acknowledge failed", "task", taskID, "error", err)
		return c.JSON(dto.AckResponse{
			Success: false,
			Error:   "Task not found",
			Verify:  h.cfg.VerificationKey,
		})
	}

	return c.JSON(dto.AckResponse{Success: true, Verify: h.cfg.VerificationKey})
}

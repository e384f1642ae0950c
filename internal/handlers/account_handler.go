package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nekowy/messy-protect-service/internal/dto"
	"github.com/nekowy/messy-protect-service/internal/middleware"
	"github.com/nekowy/messy-protect-service/internal/services"
)

type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	password, err := h.accounts.Register(req.Username, c.IP(), middleware.IsProxyLike(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProxyDenied):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "VPN/Proxy not allowed for registration."})
		case errors.Is(err, services.ErrInvalidUsername):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid username"})
		case errors.Is(err, services.ErrIPTaken):
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Error: "Only 1 account per IP address allowed."})
		case errors.Is(err, services.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: "Username already in use."})
		}
		slog.Error("registration failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Internal Server Error"})
	}

	return c.JSON(dto.RegisterResponse{
		Success:  true,
		Password: password,
		Message:  "Account created. Save this password!",
	})
}

func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	user, err := h.accounts.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Invalid credentials"})
		case errors.Is(err, services.ErrSuspended):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "Access suspended"})
		}
		slog.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Login failed"})
	}

	return c.JSON(dto.LoginResponse{
		Success:         true,
		Username:        user.Username,
		WhitelistedNick: user.WhitelistedNick,
	})
}

func (h *AccountHandler) SetWhitelist(c *fiber.Ctx) error {
	var req dto.WhitelistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	err := h.accounts.SetWhitelist(req.Username, req.Password, req.Nick, middleware.IsProxyLike(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProxyDenied):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "VPN Detected"})
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Invalid credentials"})
		case errors.Is(err, services.ErrSuspended):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "Access suspended"})
		case errors.Is(err, services.ErrNickAlreadySet):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "Nickname already set. Contact admin to change."})
		case errors.Is(err, services.ErrInvalidNick):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid nickname"})
		}
		slog.Error("whitelist update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Internal Server Error"})
	}

	return c.JSON(dto.MessageResponse{
		Success: true,
		Message: fmt.Sprintf("Nickname updated to %s", req.Nick),
	})
}

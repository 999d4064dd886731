package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/middleware"
	"skintracker/internal/services"
)

// UserHandler handles account settings. Every route reports failures as
// {"errors": {field: message}}.
type UserHandler struct {
	accounts      *services.AccountService
	logger        *zap.Logger
	secureCookies bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accounts *services.AccountService, logger *zap.Logger, secureCookies bool) *UserHandler {
	return &UserHandler{accounts: accounts, logger: logger, secureCookies: secureCookies}
}

// RegisterRoutes registers the account routes behind auth.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/user", auth)
	userRoutes.Post("/change-name", h.HandleChangeName)
	userRoutes.Post("/change-email", h.HandleChangeEmail)
	userRoutes.Post("/change-password", h.HandleChangePassword)
	userRoutes.Post("/delete-account", h.HandleDeleteAccount)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errors": fiber.Map{"body": "Invalid request body"},
	})
}

type changeNameRequest struct {
	NewName string `json:"newName"`
}

// HandleChangeName updates the display name.
func (h *UserHandler) HandleChangeName(c *fiber.Ctx) error {
	var req changeNameRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	name, err := h.accounts.ChangeName(c.UserContext(), middleware.UserID(c), req.NewName)
	if err != nil {
		return respondFieldError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"ok": true, "name": name})
}

type changeEmailRequest struct {
	NewEmail string `json:"newEmail"`
	Password string `json:"password"`
}

// HandleChangeEmail replaces the address and resets verification.
func (h *UserHandler) HandleChangeEmail(c *fiber.Ctx) error {
	var req changeEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	user, err := h.accounts.ChangeEmail(c.UserContext(), middleware.UserID(c), req.NewEmail, req.Password)
	if err != nil {
		return respondFieldError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"ok": true, "email": user.Email})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword replaces the password.
func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.accounts.ChangePassword(c.UserContext(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondFieldError(c, h.logger, err)
	}
	return ok(c)
}

type deleteAccountRequest struct {
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

// HandleDeleteAccount removes the account and everything it owns, then ends the session.
func (h *UserHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	var req deleteAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.accounts.DeleteAccount(c.UserContext(), middleware.UserID(c), req.Password, req.Confirmation); err != nil {
		return respondFieldError(c, h.logger, err)
	}
	clearSession(c, h.secureCookies)
	return ok(c)
}

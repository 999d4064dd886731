package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/middleware"
	"skintracker/internal/services"
)

// AuthHandler handles HTTP requests for registration and sessions.
type AuthHandler struct {
	authService   *services.AuthService
	validate      *validator.Validate
	logger        *zap.Logger
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the session
// cookie Secure and should be set outside development.
func NewAuthHandler(authService *services.AuthService, logger *zap.Logger, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		validate:      newValidator(),
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the authentication routes. Extra handlers, such
// as a rate limiter, run in front of every route of the group.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	authRoutes := router.Group("/auth", guards...)
	authRoutes.Post("/signup", h.HandleSignUp)
	authRoutes.Post("/verify-email", h.HandleVerifyEmail)
	authRoutes.Post("/resend-verification", h.HandleResendVerification)
	authRoutes.Post("/request-reset", h.HandleRequestReset)
	authRoutes.Post("/reset-password", h.HandleResetPassword)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
}

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// HandleSignUp registers an account and sends the verification email.
func (h *AuthHandler) HandleSignUp(c *fiber.Ctx) error {
	var req SignUpRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	err := h.authService.SignUp(c.UserContext(), services.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		Name:     req.Name,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return ok(c)
}

type tokenRequest struct {
	Token string `json:"token"`
}

// HandleVerifyEmail consumes a verification token.
func (h *AuthHandler) HandleVerifyEmail(c *fiber.Ctx) error {
	var req tokenRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	if err := h.authService.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return respondError(c, h.logger, err)
	}
	return ok(c)
}

type emailRequest struct {
	Email      string `json:"email"`
	Identifier string `json:"identifier"`
}

// HandleResendVerification always answers ok so callers cannot probe for
// accounts. The body carries an email or, alternatively, a username.
func (h *AuthHandler) HandleResendVerification(c *fiber.Ctx) error {
	var req emailRequest
	_ = c.BodyParser(&req)
	identifier := req.Email
	if identifier == "" {
		identifier = req.Identifier
	}
	h.authService.ResendVerification(c.UserContext(), identifier)
	return ok(c)
}

// HandleRequestReset always answers ok so callers cannot probe for accounts.
func (h *AuthHandler) HandleRequestReset(c *fiber.Ctx) error {
	var req emailRequest
	_ = c.BodyParser(&req)
	h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	return ok(c)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleResetPassword consumes a reset token and stores the new password.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	if err := h.authService.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return respondError(c, h.logger, err)
	}
	return ok(c)
}

// LoginRequest represents the request body for login. Identifier is an
// email address or a username.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// HandleLogin checks credentials and issues a session token, returned in the
// body and as an HttpOnly cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	token, expires, err := h.authService.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		h.logger.Info("Login failed", zap.String("identifier", req.Identifier), zap.Error(err))
		return respondError(c, h.logger, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"token":     token,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	})
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	clearSession(c, h.secureCookies)
	return ok(c)
}

func clearSession(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

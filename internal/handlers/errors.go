package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/models"
	"skintracker/internal/services"
)

var errorStatuses = []struct {
	target  error
	status  int
	message string
}{
	{services.ErrInvalidOrExpiredToken, fiber.StatusBadRequest, "Invalid or expired token"},
	{services.ErrLimitExceeded, fiber.StatusBadRequest, fmt.Sprintf("Maximum of %d loadouts allowed per account", models.MaxLoadoutsPerUser)},
	{services.ErrValidation, fiber.StatusBadRequest, "Validation failed"},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid credentials"},
	{services.ErrUnauthorized, fiber.StatusUnauthorized, "Unauthorized"},
	{services.ErrEmailNotVerified, fiber.StatusForbidden, "Email not verified"},
	{services.ErrForbidden, fiber.StatusForbidden, "Forbidden"},
	{services.ErrNotFound, fiber.StatusNotFound, "Not found"},
	{services.ErrConflict, fiber.StatusConflict, "Email or username already taken"},
	{services.ErrUpstream, fiber.StatusInternalServerError, "Sync failed"},
}

func statusFor(err error) (int, string, bool) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status, e.message, true
		}
	}
	return fiber.StatusInternalServerError, "Server error", false
}

// respondError writes err as {"error": message}. Unexpected errors are
// logged and hidden behind a generic message.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status, message, known := statusFor(err)
	if !known {
		logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{"error": message})
	}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		body := fiber.Map{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.Status(status).JSON(body)
	}
	var fe services.FieldErrors
	if errors.As(err, &fe) {
		return c.Status(status).JSON(fiber.Map{"error": message, "errors": fe})
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondFieldError writes field-level failures as {"errors": {field: message}}.
func respondFieldError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var fe services.FieldErrors
	if errors.As(err, &fe) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fe})
	}
	var single *services.FieldError
	if errors.As(err, &single) {
		status, _, _ := statusFor(single.Kind)
		return c.Status(status).JSON(fiber.Map{"errors": fiber.Map{single.Field: single.Message}})
	}
	var ve *services.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{ve.Field: ve.Message}})
	}
	return respondError(c, logger, err)
}

// parseBody decodes the request body into req and runs its validate tags.
func parseBody(c *fiber.Ctx, validate *validator.Validate, req any) error {
	if err := c.BodyParser(req); err != nil {
		return &services.ValidationError{Message: "Invalid request body"}
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			errorMessages := services.FieldErrors{}
			for _, e := range verrs {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
			return errorMessages
		}
		return &services.ValidationError{Message: "Invalid request body"}
	}
	return nil
}

func ok(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

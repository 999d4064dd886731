package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/middleware"
	"skintracker/internal/services"
)

// LoadoutHandler handles HTTP requests for loadouts.
type LoadoutHandler struct {
	loadouts *services.LoadoutService
	logger   *zap.Logger
}

// NewLoadoutHandler creates a new LoadoutHandler.
func NewLoadoutHandler(loadouts *services.LoadoutService, logger *zap.Logger) *LoadoutHandler {
	return &LoadoutHandler{loadouts: loadouts, logger: logger}
}

// RegisterRoutes registers the loadout routes behind auth.
func (h *LoadoutHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	loadoutRoutes := router.Group("/loadouts", auth)
	loadoutRoutes.Get("/", h.GetLoadouts)
	loadoutRoutes.Post("/", h.CreateLoadout)
	loadoutRoutes.Post("/import", h.ImportLoadout)
	loadoutRoutes.Get("/:id", h.GetLoadout)
	loadoutRoutes.Put("/:id", h.UpdateLoadout)
	loadoutRoutes.Delete("/:id", h.DeleteLoadout)
	loadoutRoutes.Get("/:id/export", h.ExportLoadout)
	loadoutRoutes.Get("/:id/image", h.RenderLoadout)
}

// loadoutRequest keeps icon raw so an absent icon can be told apart from
// null or "".
type loadoutRequest struct {
	Name    string             `json:"name"`
	Icon    json.RawMessage    `json:"icon"`
	Entries map[string]*string `json:"entries"`
}

func (r loadoutRequest) input() (services.LoadoutInput, error) {
	in := services.LoadoutInput{Name: r.Name, Entries: r.Entries}
	switch {
	case len(r.Icon) == 0:
		in.KeepIcon = true
	case string(r.Icon) == "null":
	default:
		var icon string
		if err := json.Unmarshal(r.Icon, &icon); err != nil {
			return in, &services.ValidationError{Field: "icon", Message: "icon must be a string or null"}
		}
		in.Icon = &icon
	}
	return in, nil
}

func bindLoadout(c *fiber.Ctx) (services.LoadoutInput, error) {
	var req loadoutRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return services.LoadoutInput{}, &services.ValidationError{Message: "Invalid request body"}
	}
	return req.input()
}

// GetLoadouts returns every loadout of the user, newest first.
func (h *LoadoutHandler) GetLoadouts(c *fiber.Ctx) error {
	loadouts, err := h.loadouts.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(loadouts)
}

// CreateLoadout stores a new loadout.
func (h *LoadoutHandler) CreateLoadout(c *fiber.Ctx) error {
	in, err := bindLoadout(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	loadout, err := h.loadouts.Create(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(loadout)
}

// GetLoadout returns one owned loadout.
func (h *LoadoutHandler) GetLoadout(c *fiber.Ctx) error {
	loadout, err := h.loadouts.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(loadout)
}

// UpdateLoadout replaces the name, icon and entry set of an owned loadout.
func (h *LoadoutHandler) UpdateLoadout(c *fiber.Ctx) error {
	in, err := bindLoadout(c)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	loadout, err := h.loadouts.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(loadout)
}

// DeleteLoadout removes an owned loadout.
func (h *LoadoutHandler) DeleteLoadout(c *fiber.Ctx) error {
	if err := h.loadouts.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ImportLoadout creates a loadout from an exported payload.
func (h *LoadoutHandler) ImportLoadout(c *fiber.Ctx) error {
	loadout, err := h.loadouts.Import(c.UserContext(), middleware.UserID(c), c.Body())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(loadout)
}

// ExportLoadout returns the interchange form as a JSON attachment.
func (h *LoadoutHandler) ExportLoadout(c *fiber.Ctx) error {
	id := c.Params("id")
	export, err := h.loadouts.Export(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	c.Attachment(fmt.Sprintf("loadout-%s.json", id))
	return c.JSON(export)
}

// RenderLoadout returns the loadout drawn as a PNG.
func (h *LoadoutHandler) RenderLoadout(c *fiber.Ctx) error {
	png, err := h.loadouts.Render(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	c.Type("png")
	return c.Send(png)
}

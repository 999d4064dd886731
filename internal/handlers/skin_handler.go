package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/middleware"
	"skintracker/internal/models"
	"skintracker/internal/services"
)

// SkinHandler handles HTTP requests for the skin catalog.
type SkinHandler struct {
	skinService *services.SkinService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewSkinHandler creates a new SkinHandler.
func NewSkinHandler(skinService *services.SkinService, logger *zap.Logger) *SkinHandler {
	return &SkinHandler{
		skinService: skinService,
		validate:    newValidator(),
		logger:      logger,
	}
}

// RegisterRoutes registers the catalog routes. optionalAuth attaches the
// viewer when a session is present.
func (h *SkinHandler) RegisterRoutes(router fiber.Router, optionalAuth fiber.Handler) {
	skinRoutes := router.Group("/skins")
	skinRoutes.Get("/", optionalAuth, h.GetSkins)
	skinRoutes.Get("/standard", h.GetStandardSkins)
	skinRoutes.Get("/weapons", h.GetWeapons)
	skinRoutes.Post("/by-ids", h.GetSkinsByIDs)
	skinRoutes.Get("/:id", optionalAuth, h.GetSkinByID)
}

// filterFromQuery reads weapon, search, page and limit. Malformed numbers
// fall back to the defaults.
func filterFromQuery(c *fiber.Ctx) models.SkinFilter {
	return models.SkinFilter{
		Weapon: c.Query("weapon"),
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", services.DefaultPageSize),
	}
}

// GetSkins returns one page of the catalog with viewer flags.
func (h *SkinHandler) GetSkins(c *fiber.Ctx) error {
	skins, err := h.skinService.List(c.UserContext(), filterFromQuery(c), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(skins)
}

// GetSkinByID returns a skin with its tier and viewer flags.
func (h *SkinHandler) GetSkinByID(c *fiber.Ctx) error {
	skin, err := h.skinService.Get(c.UserContext(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(skin)
}

// GetStandardSkins returns the default image of every weapon.
func (h *SkinHandler) GetStandardSkins(c *fiber.Ctx) error {
	standard, err := h.skinService.Standard(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(standard)
}

// GetWeapons returns the fixed weapon list.
func (h *SkinHandler) GetWeapons(c *fiber.Ctx) error {
	return c.JSON(h.skinService.Weapons())
}

type skinIDsRequest struct {
	IDs []string `json:"ids" validate:"dive,required"`
}

// GetSkinsByIDs returns the image of every known id.
func (h *SkinHandler) GetSkinsByIDs(c *fiber.Ctx) error {
	var req skinIDsRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return respondError(c, h.logger, err)
	}
	images, err := h.skinService.GetImages(c.UserContext(), req.IDs)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(images)
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/middleware"
	"skintracker/internal/models"
	"skintracker/internal/services"
)

// MembershipHandler serves the collection and wishlist of the signed-in user.
type MembershipHandler struct {
	members *services.MembershipService
	logger  *zap.Logger
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(members *services.MembershipService, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{members: members, logger: logger}
}

// RegisterRoutes registers /collection and /wishlist behind auth.
func (h *MembershipHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	for _, set := range []models.MembershipSet{models.Collection, models.Wishlist} {
		group := router.Group("/"+string(set), auth)
		group.Get("/", h.list(set))
		group.Post("/", h.add(set))
		group.Post("/add", h.add(set))
		group.Delete("/", h.remove(set))
		group.Post("/remove", h.remove(set))
	}
}

type membershipRequest struct {
	SkinID string `json:"skinId"`
}

// skinID reads skinId from the body, falling back to the query string for
// clients that cannot send a DELETE body.
func skinID(c *fiber.Ctx) string {
	var req membershipRequest
	if len(c.Body()) > 0 {
		_ = c.BodyParser(&req)
	}
	if req.SkinID == "" {
		req.SkinID = c.Query("skinId")
	}
	return req.SkinID
}

func (h *MembershipHandler) list(set models.MembershipSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		skins, err := h.members.List(c.UserContext(), set, middleware.UserID(c), filterFromQuery(c))
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return c.JSON(skins)
	}
}

func (h *MembershipHandler) add(set models.MembershipSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.members.Add(c.UserContext(), set, middleware.UserID(c), skinID(c)); err != nil {
			return respondError(c, h.logger, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

func (h *MembershipHandler) remove(set models.MembershipSet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.members.Remove(c.UserContext(), set, middleware.UserID(c), skinID(c)); err != nil {
			return respondError(c, h.logger, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

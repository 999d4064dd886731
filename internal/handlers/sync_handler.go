package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"skintracker/internal/services"
)

// SyncHandler triggers the catalog sync over HTTP.
type SyncHandler struct {
	syncService *services.SyncService
	logger      *zap.Logger
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *services.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{syncService: syncService, logger: logger}
}

// RegisterRoutes registers POST /sync/skins behind the shared-secret guard.
func (h *SyncHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	router.Post("/sync/skins", guard, h.SyncSkins)
}

// SyncSkins runs one sync and reports its stats. Every failure is reported
// as a single "Sync failed".
func (h *SyncHandler) SyncSkins(c *fiber.Ctx) error {
	result, err := h.syncService.Run(c.UserContext())
	if err != nil {
		h.logger.Error("Sync request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Sync failed"})
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"stats":     result.Stats,
		"timestamp": result.Timestamp,
	})
}

package repositories

import (
	"context"

	"skintracker/internal/models"
)

// SkinRepository defines the interface for catalog data access.
type SkinRepository interface {
	List(ctx context.Context, filter models.SkinFilter) ([]models.SkinSummary, error)
	GetByID(ctx context.Context, id string) (*models.Skin, error)
	GetImages(ctx context.Context, ids []string) ([]models.SkinImage, error)
	// ExistingIDs returns the subset of ids present in the catalog.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// Standard returns the default skin of every weapon.
	Standard(ctx context.Context) ([]models.Skin, error)
	// Upsert inserts or updates by id and reports whether the row was new.
	Upsert(ctx context.Context, skin *models.Skin) (bool, error)
}

// MembershipRepository defines the interface for collection and wishlist rows.
type MembershipRepository interface {
	// Add inserts into set and evicts the pair from the other set atomically.
	// Adding an existing member is a no-op.
	Add(ctx context.Context, set models.MembershipSet, userID, skinID string) error
	Remove(ctx context.Context, set models.MembershipSet, userID, skinID string) error
	List(ctx context.Context, set models.MembershipSet, userID string, filter models.SkinFilter) ([]models.Skin, error)
	// Members returns which of skinIDs are in set for the user.
	Members(ctx context.Context, set models.MembershipSet, userID string, skinIDs []string) (map[string]bool, error)
}

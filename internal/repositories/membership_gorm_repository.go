package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skintracker/internal/models"
)

// GORMMembershipRepository is a GORM implementation of MembershipRepository.
type GORMMembershipRepository struct {
	db *gorm.DB
}

// NewGORMMembershipRepository creates a new instance of GORMMembershipRepository.
func NewGORMMembershipRepository(db *gorm.DB) *GORMMembershipRepository {
	return &GORMMembershipRepository{db: db}
}

func entryFor(set models.MembershipSet, userID, skinID string) any {
	if set == models.Wishlist {
		return &models.WishlistEntry{UserID: userID, SkinID: skinID}
	}
	return &models.CollectionEntry{UserID: userID, SkinID: skinID}
}

func modelFor(set models.MembershipSet) any {
	if set == models.Wishlist {
		return &models.WishlistEntry{}
	}
	return &models.CollectionEntry{}
}

// Add evicts the pair from the other set and inserts it into set.
func (r *GORMMembershipRepository) Add(ctx context.Context, set models.MembershipSet, userID, skinID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND skin_id = ?", userID, skinID).
			Delete(modelFor(set.Other())).Error
		if err != nil {
			return fmt.Errorf("failed to remove skin from %s: %w", set.Other(), err)
		}

		err = tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(entryFor(set, userID, skinID)).Error
		if err != nil {
			return foreignKey(err, fmt.Sprintf("failed to add skin to %s", set))
		}
		return nil
	})
}

// Remove deletes the pair from set. A missing row is not an error.
func (r *GORMMembershipRepository) Remove(ctx context.Context, set models.MembershipSet, userID, skinID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND skin_id = ?", userID, skinID).
		Delete(modelFor(set)).Error
	if err != nil {
		return fmt.Errorf("failed to remove skin from %s: %w", set, err)
	}
	return nil
}

// List returns one page of the user's set joined to full skin records.
func (r *GORMMembershipRepository) List(ctx context.Context, set models.MembershipSet, userID string, filter models.SkinFilter) ([]models.Skin, error) {
	skins := []models.Skin{}
	join := fmt.Sprintf("JOIN %s m ON m.skin_id = skins.id AND m.user_id = ?", set.Table())
	q := r.db.WithContext(ctx).Model(&models.Skin{}).Joins(join, userID)
	if err := applySkinFilter(q, filter).Find(&skins).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", set, err)
	}
	return skins, nil
}

// Members returns which of skinIDs the user has in set.
func (r *GORMMembershipRepository) Members(ctx context.Context, set models.MembershipSet, userID string, skinIDs []string) (map[string]bool, error) {
	members := make(map[string]bool, len(skinIDs))
	if len(skinIDs) == 0 {
		return members, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(modelFor(set)).
		Where("user_id = ? AND skin_id IN ?", userID, skinIDs).
		Pluck("skin_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check %s membership: %w", set, err)
	}
	for _, id := range ids {
		members[id] = true
	}
	return members, nil
}

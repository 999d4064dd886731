package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skintracker/internal/models"
)

// GORMSkinRepository is a GORM implementation of SkinRepository.
type GORMSkinRepository struct {
	db *gorm.DB
}

// NewGORMSkinRepository creates a new instance of GORMSkinRepository.
func NewGORMSkinRepository(db *gorm.DB) *GORMSkinRepository {
	return &GORMSkinRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applySkinFilter adds the shared weapon/search/order/page clauses.
func applySkinFilter(q *gorm.DB, filter models.SkinFilter) *gorm.DB {
	if filter.Weapon != "" {
		q = q.Where("skins.weapon = ?", filter.Weapon)
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
		q = q.Where(`LOWER(skins.name) LIKE ? ESCAPE '\'`, pattern)
	}
	q = q.Order("skins.name ASC").Order("skins.id ASC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset()).Limit(filter.Limit)
	}
	return q
}

// List returns one page of skin projections ordered by name.
func (r *GORMSkinRepository) List(ctx context.Context, filter models.SkinFilter) ([]models.SkinSummary, error) {
	var skins []models.SkinSummary
	q := r.db.WithContext(ctx).Model(&models.Skin{}).
		Select("skins.id", "skins.name", "skins.weapon", "skins.image_url")
	if err := applySkinFilter(q, filter).Find(&skins).Error; err != nil {
		return nil, fmt.Errorf("failed to list skins: %w", err)
	}
	return skins, nil
}

// GetByID retrieves a single skin by its ID.
func (r *GORMSkinRepository) GetByID(ctx context.Context, id string) (*models.Skin, error) {
	var skin models.Skin
	if err := r.db.WithContext(ctx).First(&skin, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "skin with ID %s", id)
	}
	return &skin, nil
}

// GetImages returns the id and image of every matching skin.
func (r *GORMSkinRepository) GetImages(ctx context.Context, ids []string) ([]models.SkinImage, error) {
	images := []models.SkinImage{}
	if len(ids) == 0 {
		return images, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Skin{}).
		Select("id", "image_url").
		Where("id IN ?", ids).
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get skin images: %w", err)
	}
	return images, nil
}

// ExistingIDs returns the subset of ids present in the catalog.
func (r *GORMSkinRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var existing []string
	err := r.db.WithContext(ctx).Model(&models.Skin{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check skin ids: %w", err)
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// Standard returns skins named "Standard ..." plus the default melee.
func (r *GORMSkinRepository) Standard(ctx context.Context) ([]models.Skin, error) {
	var skins []models.Skin
	err := r.db.WithContext(ctx).
		Select("id", "weapon", "image_url").
		Where("name LIKE ? OR name = ?", "Standard%", "Melee").
		Order("name ASC").
		Find(&skins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get standard skins: %w", err)
	}
	return skins, nil
}

// Upsert writes the skin keyed by id. Cost is only set on insert.
func (r *GORMSkinRepository) Upsert(ctx context.Context, skin *models.Skin) (bool, error) {
	db := r.db.WithContext(ctx)

	var existing models.Skin
	err := db.Select("id").First(&existing, "id = ?", skin.ID).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return false, fmt.Errorf("failed to look up skin %s: %w", skin.ID, err)
	}

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "weapon", "tier", "image_url", "chromas", "levels", "video_url", "updated_at",
		}),
	}).Create(skin).Error
	if err != nil {
		return false, fmt.Errorf("failed to upsert skin %s: %w", skin.ID, err)
	}
	return created, nil
}

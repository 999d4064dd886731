package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"skintracker/internal/models"
)

// ErrLimitReached is returned when a user already owns the maximum number of loadouts.
var ErrLimitReached = errors.New("loadout limit reached")

// LoadoutRepository defines the interface for loadout data access.
type LoadoutRepository interface {
	// Create stores the loadout and its entries unless the owner already has max loadouts.
	Create(ctx context.Context, loadout *models.Loadout, max int) error
	GetByID(ctx context.Context, id string) (*models.Loadout, error)
	ListByUser(ctx context.Context, userID string) ([]models.Loadout, error)
	// Replace overwrites name, icon and the whole entry set.
	Replace(ctx context.Context, loadout *models.Loadout) error
	Delete(ctx context.Context, id string) error
}

// GORMLoadoutRepository is a GORM implementation of LoadoutRepository.
type GORMLoadoutRepository struct {
	db *gorm.DB
}

// NewGORMLoadoutRepository creates a new instance of GORMLoadoutRepository.
func NewGORMLoadoutRepository(db *gorm.DB) *GORMLoadoutRepository {
	return &GORMLoadoutRepository{db: db}
}

func withEntries(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Entries", func(q *gorm.DB) *gorm.DB { return q.Order("weapon ASC") }).
		Preload("Entries.Skin", func(q *gorm.DB) *gorm.DB { return q.Select("id", "name", "image_url") })
}

func insertEntries(tx *gorm.DB, loadoutID string, entries []models.LoadoutEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]models.LoadoutEntry, len(entries))
	for i, e := range entries {
		rows[i] = models.LoadoutEntry{LoadoutID: loadoutID, Weapon: e.Weapon, SkinID: e.SkinID}
	}
	if err := tx.Omit("Skin").Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create loadout entries: %w", err)
	}
	return nil
}

// Create counts the owner's loadouts and inserts the new one in one
// transaction. A missing owner is reported as ErrNotFound.
func (r *GORMLoadoutRepository) Create(ctx context.Context, loadout *models.Loadout, max int) error {
	if loadout.ID == "" {
		loadout.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Concurrent creates for one owner serialize on the owner row, so
		// the count below cannot be stale under READ COMMITTED. SQLite has
		// a single writer and its dialect drops the locking clause.
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&models.User{}, "id = ?", loadout.UserID).Error
		if err != nil {
			return notFound(err, "owner %s of loadout", loadout.UserID)
		}

		var count int64
		if err := tx.Model(&models.Loadout{}).Where("user_id = ?", loadout.UserID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count loadouts: %w", err)
		}
		if count >= int64(max) {
			return ErrLimitReached
		}

		if err := tx.Omit("Entries", "User").Create(loadout).Error; err != nil {
			return foreignKey(err, "failed to create loadout")
		}
		return insertEntries(tx, loadout.ID, loadout.Entries)
	})
}

// GetByID retrieves a loadout with its entries resolved to skins.
func (r *GORMLoadoutRepository) GetByID(ctx context.Context, id string) (*models.Loadout, error) {
	var loadout models.Loadout
	if err := withEntries(r.db.WithContext(ctx)).First(&loadout, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "loadout with ID %s", id)
	}
	return &loadout, nil
}

// ListByUser returns every loadout of the user, newest first.
func (r *GORMLoadoutRepository) ListByUser(ctx context.Context, userID string) ([]models.Loadout, error) {
	loadouts := []models.Loadout{}
	err := withEntries(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id ASC").
		Find(&loadouts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list loadouts: %w", err)
	}
	return loadouts, nil
}

// Replace deletes all entries and inserts the new set alongside the header update.
func (r *GORMLoadoutRepository) Replace(ctx context.Context, loadout *models.Loadout) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Loadout{}).
			Where("id = ?", loadout.ID).
			Select("name", "icon", "updated_at").
			Updates(loadout)
		if res.Error != nil {
			return fmt.Errorf("failed to update loadout: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("loadout with ID %s: %w", loadout.ID, ErrNotFound)
		}

		if err := tx.Where("loadout_id = ?", loadout.ID).Delete(&models.LoadoutEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete loadout entries: %w", err)
		}
		return insertEntries(tx, loadout.ID, loadout.Entries)
	})
}

// Delete removes the entries and then the loadout row.
func (r *GORMLoadoutRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loadout_id = ?", id).Delete(&models.LoadoutEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete loadout entries: %w", err)
		}
		res := tx.Delete(&models.Loadout{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete loadout: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("loadout with ID %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"skintracker/internal/models"
)

// MockSkinRepository is an in-memory implementation of SkinRepository.
type MockSkinRepository struct {
	skins map[string]models.Skin
	mu    sync.RWMutex
	// FailUpsertAfter makes Upsert fail once this many upserts succeeded.
	// Zero disables the failure.
	FailUpsertAfter int
	upserts         int
}

// NewMockSkinRepository creates a new instance of MockSkinRepository.
func NewMockSkinRepository() *MockSkinRepository {
	return &MockSkinRepository{
		skins: make(map[string]models.Skin),
	}
}

func (r *MockSkinRepository) sorted(filter models.SkinFilter) []models.Skin {
	search := strings.ToLower(filter.Search)
	var out []models.Skin
	for _, s := range r.skins {
		if filter.Weapon != "" && s.Weapon != filter.Weapon {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Name), search) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 {
		start := min(filter.Offset(), len(out))
		end := min(start+filter.Limit, len(out))
		out = out[start:end]
	}
	return out
}

// List returns one page of skin projections ordered by name.
func (r *MockSkinRepository) List(_ context.Context, filter models.SkinFilter) ([]models.SkinSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := []models.SkinSummary{}
	for _, s := range r.sorted(filter) {
		summaries = append(summaries, models.SkinSummary{ID: s.ID, Name: s.Name, Weapon: s.Weapon, ImageURL: s.ImageURL})
	}
	return summaries, nil
}

// GetByID returns a skin by its ID.
func (r *MockSkinRepository) GetByID(_ context.Context, id string) (*models.Skin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skin, ok := r.skins[id]
	if !ok {
		return nil, fmt.Errorf("skin with ID %s: %w", id, ErrNotFound)
	}
	return &skin, nil
}

// GetImages returns the id and image of every known id.
func (r *MockSkinRepository) GetImages(_ context.Context, ids []string) ([]models.SkinImage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	images := []models.SkinImage{}
	for _, id := range ids {
		if s, ok := r.skins[id]; ok {
			images = append(images, models.SkinImage{ID: s.ID, ImageURL: s.ImageURL})
		}
	}
	return images, nil
}

// ExistingIDs returns the subset of ids present.
func (r *MockSkinRepository) ExistingIDs(_ context.Context, ids []string) (map[string]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.skins[id]; ok {
			found[id] = true
		}
	}
	return found, nil
}

// Standard returns skins named "Standard ..." plus the default melee.
func (r *MockSkinRepository) Standard(_ context.Context) ([]models.Skin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Skin
	for _, s := range r.sorted(models.SkinFilter{}) {
		if strings.HasPrefix(s.Name, "Standard") || s.Name == "Melee" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Upsert stores the skin keyed by id, keeping the cost of an existing row.
func (r *MockSkinRepository) Upsert(_ context.Context, skin *models.Skin) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailUpsertAfter > 0 && r.upserts >= r.FailUpsertAfter {
		return false, fmt.Errorf("failed to upsert skin %s: storage unavailable", skin.ID)
	}
	r.upserts++

	existing, ok := r.skins[skin.ID]
	stored := *skin
	if ok {
		stored.Cost = existing.Cost
	}
	r.skins[skin.ID] = stored
	return !ok, nil
}

// Len reports how many skins are stored.
func (r *MockSkinRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skins)
}

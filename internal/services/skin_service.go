package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"skintracker/internal/cache"
	"skintracker/internal/models"
	"skintracker/internal/repositories"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizeFilter clamps paging to a 1-indexed page of at most MaxPageSize
// rows and trims the text filters.
func NormalizeFilter(f models.SkinFilter) models.SkinFilter {
	f.Weapon = strings.TrimSpace(f.Weapon)
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// SkinService handles read access to the catalog.
type SkinService struct {
	skins    repositories.SkinRepository
	members  repositories.MembershipRepository
	cache    cache.PageCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSkinService creates a new SkinService.
func NewSkinService(skins repositories.SkinRepository, members repositories.MembershipRepository, pages cache.PageCache, cacheTTL time.Duration, logger *zap.Logger) *SkinService {
	return &SkinService{
		skins:    skins,
		members:  members,
		cache:    pages,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// List returns one page of the catalog. When viewerID is set every skin is
// flagged with the viewer's collection and wishlist membership.
func (s *SkinService) List(ctx context.Context, filter models.SkinFilter, viewerID string) ([]models.SkinSummary, error) {
	filter = NormalizeFilter(filter)
	skins, err := s.skins.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if skins == nil {
		skins = []models.SkinSummary{}
	}
	if viewerID == "" || len(skins) == 0 {
		return skins, nil
	}

	ids := make([]string, len(skins))
	for i, skin := range skins {
		ids[i] = skin.ID
	}
	owned, err := s.members.Members(ctx, models.Collection, viewerID, ids)
	if err != nil {
		return nil, err
	}
	wanted, err := s.members.Members(ctx, models.Wishlist, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range skins {
		skins[i].InCollection = owned[skins[i].ID]
		skins[i].InWishlist = wanted[skins[i].ID]
	}
	return skins, nil
}

// Get returns the detail view of one skin, served from the page cache when
// possible.
func (s *SkinService) Get(ctx context.Context, id, viewerID string) (*models.SkinDetail, error) {
	group := cache.SkinGroup(id, viewerID)
	page, ok, cacheErr := s.cache.Get(ctx, group, "detail")
	if cacheErr != nil {
		s.logger.Warn("Failed to read cached skin", zap.String("skin_id", id), zap.Error(cacheErr))
	} else if ok {
		var detail models.SkinDetail
		if err := json.Unmarshal(page.Data, &detail); err == nil {
			return &detail, nil
		}
	}

	skin, err := s.skins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("skin %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	detail := &models.SkinDetail{Skin: *skin, TierInfo: models.LookupTier(skin.Tier)}
	if viewerID != "" {
		owned, err := s.members.Members(ctx, models.Collection, viewerID, []string{id})
		if err != nil {
			return nil, err
		}
		wanted, err := s.members.Members(ctx, models.Wishlist, viewerID, []string{id})
		if err != nil {
			return nil, err
		}
		detail.InCollection = owned[id]
		detail.InWishlist = wanted[id]
	}

	if data, err := json.Marshal(detail); err == nil && cacheErr == nil {
		if err := s.cache.Set(ctx, group, "detail", page.Generation, data, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache skin", zap.String("skin_id", id), zap.Error(err))
		}
	}
	return detail, nil
}

// GetImages returns id and image for each known id. Unknown ids are dropped.
func (s *SkinService) GetImages(ctx context.Context, ids []string) ([]models.SkinImage, error) {
	return s.skins.GetImages(ctx, ids)
}

// Standard maps each weapon to the image of its default skin.
func (s *SkinService) Standard(ctx context.Context) (map[string]*string, error) {
	skins, err := s.skins.Standard(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*string, len(skins))
	for _, skin := range skins {
		out[skin.Weapon] = skin.ImageURL
	}
	return out, nil
}

// Weapons returns the fixed weapon list.
func (s *SkinService) Weapons() []string {
	return append([]string(nil), models.Weapons...)
}

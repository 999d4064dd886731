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

// MembershipService manages the collection and wishlist of a user.
type MembershipService struct {
	members  repositories.MembershipRepository
	skins    repositories.SkinRepository
	cache    cache.PageCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(members repositories.MembershipRepository, skins repositories.SkinRepository, pages cache.PageCache, cacheTTL time.Duration, logger *zap.Logger) *MembershipService {
	return &MembershipService{
		members:  members,
		skins:    skins,
		cache:    pages,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func setGroup(set models.MembershipSet, userID string) string {
	if set == models.Wishlist {
		return cache.WishlistGroup(userID)
	}
	return cache.CollectionGroup(userID)
}

func (s *MembershipService) requireSkin(ctx context.Context, skinID string) (string, error) {
	skinID = strings.TrimSpace(skinID)
	if skinID == "" {
		return "", invalid("skinId", "skinId is required")
	}
	found, err := s.skins.ExistingIDs(ctx, []string{skinID})
	if err != nil {
		return "", err
	}
	if !found[skinID] {
		return "", fmt.Errorf("skin %s: %w", skinID, ErrNotFound)
	}
	return skinID, nil
}

// invalidate drops every cached page the pair shows up on.
func (s *MembershipService) invalidate(ctx context.Context, userID, skinID string) {
	groups := []string{
		cache.CollectionGroup(userID),
		cache.WishlistGroup(userID),
		cache.SkinGroup(skinID, userID),
	}
	if err := s.cache.Invalidate(ctx, groups...); err != nil {
		s.logger.Warn("Failed to invalidate cached pages",
			zap.String("user_id", userID),
			zap.String("skin_id", skinID),
			zap.Error(err))
	}
}

// Add puts the skin into set, evicting it from the other set. Adding a
// member again succeeds without change.
func (s *MembershipService) Add(ctx context.Context, set models.MembershipSet, userID, skinID string) error {
	skinID, err := s.requireSkin(ctx, skinID)
	if err != nil {
		return err
	}
	if err := s.members.Add(ctx, set, userID, skinID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("account %s no longer exists: %w", userID, ErrUnauthorized)
		}
		return err
	}
	s.invalidate(ctx, userID, skinID)
	return nil
}

// Remove takes the skin out of set. Removing a non-member succeeds.
func (s *MembershipService) Remove(ctx context.Context, set models.MembershipSet, userID, skinID string) error {
	skinID, err := s.requireSkin(ctx, skinID)
	if err != nil {
		return err
	}
	if err := s.members.Remove(ctx, set, userID, skinID); err != nil {
		return err
	}
	s.invalidate(ctx, userID, skinID)
	return nil
}

func pageKey(f models.SkinFilter) string {
	return fmt.Sprintf("w=%s|q=%s|p=%d|l=%d", f.Weapon, strings.ToLower(f.Search), f.Page, f.Limit)
}

// List returns one page of the user's set, served from the page cache when possible.
func (s *MembershipService) List(ctx context.Context, set models.MembershipSet, userID string, filter models.SkinFilter) ([]models.Skin, error) {
	filter = NormalizeFilter(filter)
	group, key := setGroup(set, userID), pageKey(filter)

	page, ok, cacheErr := s.cache.Get(ctx, group, key)
	if cacheErr != nil {
		s.logger.Warn("Failed to read cached page", zap.String("group", group), zap.Error(cacheErr))
	} else if ok {
		var skins []models.Skin
		if err := json.Unmarshal(page.Data, &skins); err == nil {
			return skins, nil
		}
	}

	skins, err := s.members.List(ctx, set, userID, filter)
	if err != nil {
		return nil, err
	}
	// Without a generation the fill could overwrite a newer invalidation.
	if cacheErr != nil {
		return skins, nil
	}
	if data, err := json.Marshal(skins); err == nil {
		if err := s.cache.Set(ctx, group, key, page.Generation, data, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache page", zap.String("group", group), zap.Error(err))
		}
	}
	return skins, nil
}

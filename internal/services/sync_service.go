package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"skintracker/internal/models"
	"skintracker/internal/repositories"
	"skintracker/internal/skinsource"
)

// CatalogSource supplies the upstream weapon and skin catalog.
type CatalogSource interface {
	Weapons(ctx context.Context) ([]skinsource.Weapon, error)
	Skins(ctx context.Context) ([]skinsource.Skin, error)
}

// SyncStats counts the outcome of one sync run.
type SyncStats struct {
	New      int    `json:"new"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Total    int    `json:"total"`
	Duration string `json:"duration"`

	elapsed time.Duration
}

// Elapsed is the wall time of the run.
func (s SyncStats) Elapsed() time.Duration { return s.elapsed }

// SyncResult is the report of a completed run.
type SyncResult struct {
	Stats     SyncStats `json:"stats"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncObserver is told about every finished run, failed or not.
type SyncObserver func(stats SyncStats, err error)

// SyncService mirrors the upstream catalog into the skins table.
type SyncService struct {
	source   CatalogSource
	skins    repositories.SkinRepository
	logger   *zap.Logger
	observer SyncObserver
	now      func() time.Time

	mu sync.Mutex
}

// NewSyncService creates a new SyncService. observer may be nil.
func NewSyncService(source CatalogSource, skins repositories.SkinRepository, observer SyncObserver, logger *zap.Logger) *SyncService {
	return &SyncService{
		source:   source,
		skins:    skins,
		logger:   logger,
		observer: observer,
		now:      time.Now,
	}
}

// Run fetches the catalog and upserts every usable skin. Runs never overlap.
// A fetch failure aborts the run; rows already written are kept.
func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	stats, err := s.run(ctx)
	stats.elapsed = s.now().Sub(start)
	stats.Duration = fmt.Sprintf("%dms", stats.elapsed.Milliseconds())
	stats.Total = stats.New + stats.Updated

	if s.observer != nil {
		s.observer(stats, err)
	}
	if err != nil {
		s.logger.Error("Catalog sync failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Catalog sync finished",
		zap.Int("new", stats.New),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("duration", stats.elapsed),
	)
	return &SyncResult{Stats: stats, Timestamp: s.now().UTC()}, nil
}

func (s *SyncService) run(ctx context.Context) (SyncStats, error) {
	var stats SyncStats

	weapons, err := s.source.Weapons(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch weapons: %v: %w", err, ErrUpstream)
	}
	weaponOf := make(map[string]string)
	for _, w := range weapons {
		for _, skin := range w.Skins {
			weaponOf[skin.ID] = w.Name
		}
	}

	upstream, err := s.source.Skins(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch skins: %v: %w", err, ErrUpstream)
	}

	for _, u := range upstream {
		skin, ok := catalogSkin(u, weaponOf)
		if !ok {
			stats.Skipped++
			continue
		}
		created, err := s.skins.Upsert(ctx, skin)
		if err != nil {
			return stats, err
		}
		if created {
			stats.New++
		} else {
			stats.Updated++
		}
	}
	return stats, nil
}

// catalogSkin converts an upstream record, reporting false when it cannot be
// stored: no name, no chromas, unknown weapon or no rendered chroma.
func catalogSkin(u skinsource.Skin, weaponOf map[string]string) (*models.Skin, bool) {
	if strings.TrimSpace(u.Name) == "" || len(u.Chromas) == 0 {
		return nil, false
	}
	weapon, ok := weaponOf[u.ID]
	if !ok {
		return nil, false
	}

	var image *string
	for _, c := range u.Chromas {
		if c.FullRender != nil && *c.FullRender != "" {
			image = c.FullRender
			break
		}
	}
	if image == nil {
		return nil, false
	}

	tier := models.UnknownTier
	if u.ContentTier != nil && *u.ContentTier != "" {
		tier = *u.ContentTier
	}

	var video *string
	if len(u.Levels) > 0 {
		video = u.Levels[0].StreamedVideo
	}

	return &models.Skin{
		ID:       u.ID,
		Name:     u.Name,
		Weapon:   weapon,
		Tier:     tier,
		ImageURL: image,
		Chromas:  u.Chromas,
		Levels:   u.Levels,
		VideoURL: video,
	}, true
}

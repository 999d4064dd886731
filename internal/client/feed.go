package client

import (
	"context"
	"errors"
	"sync"

	"skintracker/internal/models"
)

// ErrStale is returned by LoadMore when the filter changed while the page
// was in flight. The page is discarded.
var ErrStale = errors.New("stale page discarded")

// PageFetcher loads one catalog page.
type PageFetcher func(ctx context.Context, filter models.SkinFilter) ([]models.SkinSummary, error)

// Feed accumulates catalog pages for one filter. Every filter change bumps a
// generation counter; responses tagged with an older generation are dropped.
type Feed struct {
	fetch    PageFetcher
	pageSize int

	mu         sync.Mutex
	filter     models.SkinFilter
	generation uint64
	items      []models.SkinSummary
	nextPage   int
	done       bool
	loading    bool
}

// NewFeed creates a Feed that requests pageSize items at a time.
func NewFeed(fetch PageFetcher, pageSize int) *Feed {
	return &Feed{fetch: fetch, pageSize: pageSize, nextPage: 1}
}

// SetFilter resets the feed for a new weapon/search filter and returns the
// new generation.
func (f *Feed) SetFilter(weapon, search string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	f.filter = models.SkinFilter{Weapon: weapon, Search: search}
	f.items = nil
	f.nextPage = 1
	f.done = false
	f.loading = false
	return f.generation
}

// LoadMore fetches the next page and appends it. It returns how many items
// were appended, ErrStale when the filter changed meanwhile, or nil with 0
// once the feed is exhausted or a page is already loading.
func (f *Feed) LoadMore(ctx context.Context) (int, error) {
	f.mu.Lock()
	if f.done || f.loading {
		f.mu.Unlock()
		return 0, nil
	}
	gen := f.generation
	filter := f.filter
	filter.Page = f.nextPage
	filter.Limit = f.pageSize
	f.loading = true
	f.mu.Unlock()

	page, err := f.fetch(ctx, filter)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return 0, ErrStale
	}
	f.loading = false
	if err != nil {
		return 0, err
	}
	f.items = append(f.items, page...)
	f.nextPage++
	if len(page) < f.pageSize {
		f.done = true
	}
	return len(page), nil
}

// Items returns a copy of everything loaded for the current filter.
func (f *Feed) Items() []models.SkinSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SkinSummary(nil), f.items...)
}

// Done reports whether the last page has been loaded.
func (f *Feed) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

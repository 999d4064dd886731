package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"skintracker/internal/models"
	"skintracker/internal/render"
	"skintracker/internal/repositories"
)

// LoadoutInput is the desired state of a loadout. Entries map a weapon to a
// skin id; a nil id leaves the weapon unassigned.
type LoadoutInput struct {
	Name    string
	Icon    *string
	Entries map[string]*string
	// KeepIcon leaves the stored icon untouched on update.
	KeepIcon bool
}

// Renderer draws a loadout as a PNG.
type Renderer interface {
	Render(ctx context.Context, title string, groups []render.Group) ([]byte, error)
}

// LoadoutService manages user loadouts.
type LoadoutService struct {
	loadouts repositories.LoadoutRepository
	skins    repositories.SkinRepository
	renderer Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoadoutService creates a new LoadoutService.
func NewLoadoutService(loadouts repositories.LoadoutRepository, skins repositories.SkinRepository, renderer Renderer, logger *zap.Logger) *LoadoutService {
	return &LoadoutService{
		loadouts: loadouts,
		skins:    skins,
		renderer: renderer,
		logger:   logger,
		now:      time.Now,
	}
}

func validateLoadoutName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalid("name", "Loadout name is required")
	}
	if utf8.RuneCountInString(trimmed) > models.MaxLoadoutNameLength {
		return "", invalid("name", fmt.Sprintf("Loadout name must be %d characters or less", models.MaxLoadoutNameLength))
	}
	return trimmed, nil
}

func normalizeIcon(icon *string) *string {
	if icon == nil || strings.TrimSpace(*icon) == "" {
		return nil
	}
	v := strings.TrimSpace(*icon)
	return &v
}

// buildEntries checks weapon names and skin ids and returns one row per
// assigned weapon, ordered by weapon.
func (s *LoadoutService) buildEntries(ctx context.Context, entries map[string]*string) ([]models.LoadoutEntry, error) {
	weapons := make([]string, 0, len(entries))
	for weapon := range entries {
		weapons = append(weapons, weapon)
	}
	sort.Strings(weapons)

	rows := make([]models.LoadoutEntry, 0, len(entries))
	var ids []string
	for _, weapon := range weapons {
		if !models.IsWeapon(weapon) {
			return nil, invalid("entries."+weapon, "unknown weapon")
		}
		skinID := entries[weapon]
		if skinID == nil || strings.TrimSpace(*skinID) == "" {
			continue
		}
		rows = append(rows, models.LoadoutEntry{Weapon: weapon, SkinID: *skinID})
		ids = append(ids, *skinID)
	}
	if len(ids) == 0 {
		return rows, nil
	}

	found, err := s.skins.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if !found[row.SkinID] {
			return nil, invalid("entries."+row.Weapon, "unknown skin "+row.SkinID)
		}
	}
	return rows, nil
}

// owned loads the loadout and checks that userID owns it.
func (s *LoadoutService) owned(ctx context.Context, userID, id string) (*models.Loadout, error) {
	loadout, err := s.loadouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("loadout %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if loadout.UserID != userID {
		return nil, fmt.Errorf("loadout %s: %w", id, ErrForbidden)
	}
	return loadout, nil
}

func (s *LoadoutService) view(ctx context.Context, id string) (*models.LoadoutView, error) {
	loadout, err := s.loadouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := models.NewLoadoutView(loadout)
	return &v, nil
}

// Create stores a new loadout for userID.
func (s *LoadoutService) Create(ctx context.Context, userID string, in LoadoutInput) (*models.LoadoutView, error) {
	name, err := validateLoadoutName(in.Name)
	if err != nil {
		return nil, err
	}
	entries, err := s.buildEntries(ctx, in.Entries)
	if err != nil {
		return nil, err
	}

	loadout := &models.Loadout{
		UserID:  userID,
		Name:    name,
		Icon:    normalizeIcon(in.Icon),
		Entries: entries,
	}
	if err := s.loadouts.Create(ctx, loadout, models.MaxLoadoutsPerUser); err != nil {
		if errors.Is(err, repositories.ErrLimitReached) {
			return nil, fmt.Errorf("maximum of %d loadouts allowed per account: %w", models.MaxLoadoutsPerUser, ErrLimitExceeded)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("account %s no longer exists: %w", userID, ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to create loadout: %w", err)
	}
	return s.view(ctx, loadout.ID)
}

// Update replaces name, icon and the whole entry set of an owned loadout.
func (s *LoadoutService) Update(ctx context.Context, userID, id string, in LoadoutInput) (*models.LoadoutView, error) {
	loadout, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	name, err := validateLoadoutName(in.Name)
	if err != nil {
		return nil, err
	}
	entries, err := s.buildEntries(ctx, in.Entries)
	if err != nil {
		return nil, err
	}

	loadout.Name = name
	if !in.KeepIcon {
		loadout.Icon = normalizeIcon(in.Icon)
	}
	loadout.Entries = entries
	loadout.UpdatedAt = s.now()
	if err := s.loadouts.Replace(ctx, loadout); err != nil {
		return nil, fmt.Errorf("failed to update loadout: %w", err)
	}
	return s.view(ctx, loadout.ID)
}

// Get returns an owned loadout.
func (s *LoadoutService) Get(ctx context.Context, userID, id string) (*models.LoadoutView, error) {
	loadout, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	v := models.NewLoadoutView(loadout)
	return &v, nil
}

// List returns every loadout of userID, newest first.
func (s *LoadoutService) List(ctx context.Context, userID string) ([]models.LoadoutView, error) {
	loadouts, err := s.loadouts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]models.LoadoutView, len(loadouts))
	for i := range loadouts {
		views[i] = models.NewLoadoutView(&loadouts[i])
	}
	return views, nil
}

// Delete removes an owned loadout and its entries.
func (s *LoadoutService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.loadouts.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("loadout %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete loadout: %w", err)
	}
	return nil
}

// Import validates an exported payload and creates a loadout from it.
func (s *LoadoutService) Import(ctx context.Context, userID string, payload []byte) (*models.LoadoutView, error) {
	in, err := ParseLoadoutImport(payload)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, userID, in)
}

// Export returns the interchange form of an owned loadout.
func (s *LoadoutService) Export(ctx context.Context, userID, id string) (models.LoadoutExport, error) {
	v, err := s.Get(ctx, userID, id)
	if err != nil {
		return models.LoadoutExport{}, err
	}
	return ExportLoadout(*v), nil
}

// Render draws an owned loadout. Unassigned weapons show their standard skin.
func (s *LoadoutService) Render(ctx context.Context, userID, id string) ([]byte, error) {
	v, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	standard, err := s.skins.Standard(ctx)
	if err != nil {
		return nil, err
	}
	defaults := make(map[string]*string, len(standard))
	for _, skin := range standard {
		defaults[skin.Weapon] = skin.ImageURL
	}
	assigned := make(map[string]models.LoadoutEntryView, len(v.Entries))
	for _, e := range v.Entries {
		assigned[e.Weapon] = e
	}

	groups := make([]render.Group, 0, len(models.WeaponGroups))
	for _, wg := range models.WeaponGroups {
		g := render.Group{Label: wg.Label}
		for _, weapon := range wg.Weapons {
			tile := render.Tile{Label: weapon, ImageURL: defaults[weapon]}
			if e, ok := assigned[weapon]; ok && e.Skin != nil {
				tile.Label = e.Skin.Name
				tile.ImageURL = e.Skin.ImageURL
			}
			g.Tiles = append(g.Tiles, tile)
		}
		groups = append(groups, g)
	}
	return s.renderer.Render(ctx, v.Name, groups)
}

// ExportLoadout converts a loadout into its interchange form. Unassigned
// weapons are omitted.
func ExportLoadout(v models.LoadoutView) models.LoadoutExport {
	return models.LoadoutExport{
		Name:    v.Name,
		Icon:    v.Icon,
		Entries: v.Assignments(),
	}
}

// ParseLoadoutImport checks the shape of an import payload and names the
// offending field on failure.
func ParseLoadoutImport(payload []byte) (LoadoutInput, error) {
	if !gjson.ValidBytes(payload) {
		return LoadoutInput{}, invalid("payload", "Invalid JSON")
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return LoadoutInput{}, invalid("payload", "Payload must be a JSON object")
	}

	name := root.Get("name")
	if name.Type != gjson.String || strings.TrimSpace(name.Str) == "" {
		return LoadoutInput{}, invalid("name", "name must be a non-empty string")
	}

	entries := root.Get("entries")
	if !entries.IsObject() {
		return LoadoutInput{}, invalid("entries", "entries must be an object of weapon to skin id")
	}
	in := LoadoutInput{Name: name.Str, Entries: map[string]*string{}}
	var entryErr error
	entries.ForEach(func(key, value gjson.Result) bool {
		switch value.Type {
		case gjson.String:
			id := value.Str
			in.Entries[key.Str] = &id
		case gjson.Null:
			in.Entries[key.Str] = nil
		default:
			entryErr = invalid("entries."+key.Str, "skin id must be a string or null")
			return false
		}
		return true
	})
	if entryErr != nil {
		return LoadoutInput{}, entryErr
	}

	icon := root.Get("icon")
	if icon.Exists() && icon.Type != gjson.Null {
		if icon.Type != gjson.String || strings.TrimSpace(icon.Str) == "" {
			return LoadoutInput{}, invalid("icon", "icon must be a non-empty string")
		}
		v := icon.Str
		in.Icon = &v
	}
	return in, nil
}

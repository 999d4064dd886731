package models

import "time"

const (
	// MaxLoadoutsPerUser caps how many loadouts one account may own.
	MaxLoadoutsPerUser = 8
	// MaxLoadoutNameLength is measured in characters after trimming.
	MaxLoadoutNameLength = 26
)

// Loadout is a named set of weapon to skin assignments.
type Loadout struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)"`
	UserID    string         `gorm:"index;type:varchar(36);not null"`
	Name      string         `gorm:"type:varchar(64);not null"`
	Icon      *string        `gorm:"type:text"`
	Entries   []LoadoutEntry `gorm:"foreignKey:LoadoutID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"index"`
	UpdatedAt time.Time
	User      *User `gorm:"constraint:OnDelete:CASCADE"`
}

// LoadoutEntry assigns one skin to one weapon slot of a loadout.
type LoadoutEntry struct {
	ID        uint   `gorm:"primaryKey"`
	LoadoutID string `gorm:"uniqueIndex:idx_loadout_weapon;type:varchar(36);not null"`
	Weapon    string `gorm:"uniqueIndex:idx_loadout_weapon;type:varchar(50);not null"`
	SkinID    string `gorm:"type:varchar(36);not null"`
	Skin      *Skin  `gorm:"foreignKey:SkinID"`
}

// LoadoutView is a loadout with entries resolved to skin display data.
type LoadoutView struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Name      string             `json:"name"`
	Icon      *string            `json:"icon"`
	Entries   []LoadoutEntryView `json:"entries"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// LoadoutEntryView is one resolved weapon slot.
type LoadoutEntryView struct {
	Weapon string   `json:"weapon"`
	SkinID string   `json:"skinId"`
	Skin   *SkinRef `json:"skin"`
}

// LoadoutExport is the interchange format used by export and import.
type LoadoutExport struct {
	Name    string            `json:"name"`
	Icon    *string           `json:"icon,omitempty"`
	Entries map[string]string `json:"entries"`
}

// NewLoadoutView resolves a loaded loadout into its view form.
func NewLoadoutView(l *Loadout) LoadoutView {
	view := LoadoutView{
		ID:        l.ID,
		UserID:    l.UserID,
		Name:      l.Name,
		Icon:      l.Icon,
		Entries:   make([]LoadoutEntryView, 0, len(l.Entries)),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	for _, e := range l.Entries {
		ev := LoadoutEntryView{Weapon: e.Weapon, SkinID: e.SkinID}
		if e.Skin != nil {
			ev.Skin = &SkinRef{ID: e.Skin.ID, Name: e.Skin.Name, ImageURL: e.Skin.ImageURL}
		}
		view.Entries = append(view.Entries, ev)
	}
	return view
}

// Assignments returns the weapon to skin id map of the view.
func (v LoadoutView) Assignments() map[string]string {
	out := make(map[string]string, len(v.Entries))
	for _, e := range v.Entries {
		if e.SkinID != "" {
			out[e.Weapon] = e.SkinID
		}
	}
	return out
}

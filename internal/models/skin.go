package models

import (
	"time"

	"gorm.io/datatypes"
)

// Weapons is the fixed set of weapon categories a skin can belong to.
var Weapons = []string{
	"Ares",
	"Bandit",
	"Bucky",
	"Bulldog",
	"Classic",
	"Frenzy",
	"Ghost",
	"Guardian",
	"Judge",
	"Marshal",
	"Melee",
	"Odin",
	"Operator",
	"Outlaw",
	"Phantom",
	"Sheriff",
	"Shorty",
	"Spectre",
	"Stinger",
	"Vandal",
}

// WeaponGroup is a display category of weapons.
type WeaponGroup struct {
	Label   string
	Weapons []string
}

// WeaponGroups orders every weapon of Weapons for display.
var WeaponGroups = []WeaponGroup{
	{Label: "SIDEARMS", Weapons: []string{"Classic", "Shorty", "Frenzy", "Ghost", "Bandit", "Sheriff"}},
	{Label: "SMGS", Weapons: []string{"Stinger", "Spectre"}},
	{Label: "SHOTGUNS", Weapons: []string{"Bucky", "Judge"}},
	{Label: "RIFLES", Weapons: []string{"Bulldog", "Guardian", "Phantom", "Vandal"}},
	{Label: "MELEE", Weapons: []string{"Melee"}},
	{Label: "MACHINE GUNS", Weapons: []string{"Ares", "Odin"}},
	{Label: "SNIPER RIFLES", Weapons: []string{"Marshal", "Outlaw", "Operator"}},
}

// IsWeapon reports whether name is one of Weapons.
func IsWeapon(name string) bool {
	for _, w := range Weapons {
		if w == name {
			return true
		}
	}
	return false
}

// UnknownTier is stored when the catalog source has no content tier.
const UnknownTier = "Unknown"

// Chroma is a color variant of a skin.
type Chroma struct {
	ID         string  `json:"uuid"`
	Name       string  `json:"displayName,omitempty"`
	FullRender *string `json:"fullRender"`
	Swatch     *string `json:"swatch"`
}

// Level is an upgrade stage of a skin.
type Level struct {
	ID            string  `json:"uuid"`
	Name          string  `json:"displayName,omitempty"`
	StreamedVideo *string `json:"streamedVideo"`
}

// Skin is a catalog entry. Rows are written only by the catalog sync.
type Skin struct {
	ID        string                      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string                      `json:"name" gorm:"index;type:varchar(255);not null"`
	Weapon    string                      `json:"weapon" gorm:"index;type:varchar(50);not null"`
	Tier      string                      `json:"tier" gorm:"type:varchar(64);not null"`
	Cost      int                         `json:"cost"`
	ImageURL  *string                     `json:"imageUrl"`
	Chromas   datatypes.JSONSlice[Chroma] `json:"chromas"`
	Levels    datatypes.JSONSlice[Level]  `json:"levels"`
	VideoURL  *string                     `json:"videoUrl"`
	CreatedAt time.Time                   `json:"-"`
	UpdatedAt time.Time                   `json:"-"`
}

// SkinSummary is the projection used by listings.
type SkinSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Weapon       string  `json:"weapon"`
	ImageURL     *string `json:"imageUrl"`
	InCollection bool    `json:"inCollection"`
	InWishlist   bool    `json:"inWishlist"`
}

// SkinImage is the projection returned by bulk id lookups.
type SkinImage struct {
	ID       string  `json:"id"`
	ImageURL *string `json:"imageUrl"`
}

// SkinRef is the display data a loadout entry resolves to.
type SkinRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"imageUrl"`
}

// SkinFilter narrows a skin listing.
type SkinFilter struct {
	Weapon string
	Search string
	Page   int
	Limit  int
}

// Offset converts the 1-indexed page into a row offset.
func (f SkinFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// SkinDetail is a full skin record with display tier and viewer flags.
type SkinDetail struct {
	Skin
	TierInfo     TierInfo `json:"tierInfo"`
	InCollection bool     `json:"inCollection"`
	InWishlist   bool     `json:"inWishlist"`
}

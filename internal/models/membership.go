package models

import "time"

// CollectionEntry records that a user owns a skin.
type CollectionEntry struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
	SkinID    string `gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt time.Time
	User      *User `gorm:"constraint:OnDelete:CASCADE"`
	Skin      *Skin `gorm:"constraint:OnDelete:CASCADE"`
}

// WishlistEntry records that a user wants a skin.
type WishlistEntry struct {
	UserID    string `gorm:"primaryKey;type:varchar(36)"`
	SkinID    string `gorm:"primaryKey;type:varchar(36);index"`
	CreatedAt time.Time
	User      *User `gorm:"constraint:OnDelete:CASCADE"`
	Skin      *Skin `gorm:"constraint:OnDelete:CASCADE"`
}

// MembershipSet names one of the two per-user skin sets.
type MembershipSet string

const (
	Collection MembershipSet = "collection"
	Wishlist   MembershipSet = "wishlist"
)

// Table returns the join table backing the set.
func (s MembershipSet) Table() string {
	if s == Wishlist {
		return "wishlist_entries"
	}
	return "collection_entries"
}

// Other returns the mutually exclusive counterpart.
func (s MembershipSet) Other() MembershipSet {
	if s == Wishlist {
		return Collection
	}
	return Wishlist
}

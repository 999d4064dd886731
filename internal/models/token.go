package models

import "time"

// VerificationToken proves control of an account's email address.
type VerificationToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;type:varchar(64);not null"`
	UserID    string    `gorm:"index;type:varchar(36);not null"`
	Expires   time.Time `gorm:"not null"`
	CreatedAt time.Time
	User      *User `gorm:"constraint:OnDelete:CASCADE"`
}

// PasswordResetToken authorizes a single password reset.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;type:varchar(64);not null"`
	UserID    string    `gorm:"index;type:varchar(36);not null"`
	Expires   time.Time `gorm:"not null"`
	CreatedAt time.Time
	User      *User `gorm:"constraint:OnDelete:CASCADE"`
}

// Expired treats the expiry as a hard cutoff.
func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

// Expired treats the expiry as a hard cutoff.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return !now.Before(t.Expires)
}

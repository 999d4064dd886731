package models

import "time"

// User is an account. PasswordHash is nil for passwordless accounts and
// EmailVerified stays nil until the address is confirmed.
type User struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email         string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Username      string     `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Name          string     `json:"name" gorm:"type:varchar(100)"`
	PasswordHash  *string    `json:"-" gorm:"type:varchar(255)"`
	EmailVerified *time.Time `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// DisplayName falls back to the username when no display name is set.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// IsVerified reports whether the email address has been confirmed.
func (u *User) IsVerified() bool {
	return u.EmailVerified != nil
}

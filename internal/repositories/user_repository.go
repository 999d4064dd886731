package repositories

import (
	"context"
	"time"

	"skintracker/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByIdentifier matches either the email or the username.
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user together with every row the user owns.
	Delete(ctx context.Context, id string) error
}

// TokenRepository defines the interface for one-time email tokens.
type TokenRepository interface {
	// ReplaceVerificationToken drops every verification token of the user
	// and stores t in its place.
	ReplaceVerificationToken(ctx context.Context, t *models.VerificationToken) error
	// VerifyEmail consumes the token and marks its user verified.
	VerifyEmail(ctx context.Context, token string, now time.Time) error
	ReplaceResetToken(ctx context.Context, t *models.PasswordResetToken) error
	// CheckResetToken reports ErrTokenInvalid for an unknown or expired token
	// without consuming it.
	CheckResetToken(ctx context.Context, token string, now time.Time) error
	// ResetPassword consumes the token and stores the new password hash.
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
}

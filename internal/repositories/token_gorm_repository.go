package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"skintracker/internal/models"
)

// ErrTokenInvalid is returned when a token is unknown or past its expiry.
var ErrTokenInvalid = errors.New("invalid or expired token")

// GORMTokenRepository is a GORM implementation of TokenRepository.
type GORMTokenRepository struct {
	db *gorm.DB
}

// NewGORMTokenRepository creates a new instance of GORMTokenRepository.
func NewGORMTokenRepository(db *gorm.DB) *GORMTokenRepository {
	return &GORMTokenRepository{db: db}
}

// ReplaceVerificationToken invalidates older verification tokens of the user.
func (r *GORMTokenRepository) ReplaceVerificationToken(ctx context.Context, t *models.VerificationToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", t.UserID).Delete(&models.VerificationToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete verification tokens: %w", err)
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("failed to create verification token: %w", err)
		}
		return nil
	})
}

// VerifyEmail sets the verification timestamp once and deletes the token.
func (r *GORMTokenRepository) VerifyEmail(ctx context.Context, token string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.VerificationToken
		if err := tx.First(&record, "token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("failed to look up verification token: %w", err)
		}
		if record.Expired(now) {
			return ErrTokenInvalid
		}

		err := tx.Model(&models.User{}).
			Where("id = ? AND email_verified IS NULL", record.UserID).
			Update("email_verified", now).Error
		if err != nil {
			return fmt.Errorf("failed to mark email verified: %w", err)
		}
		if err := tx.Delete(&record).Error; err != nil {
			return fmt.Errorf("failed to delete verification token: %w", err)
		}
		return nil
	})
}

// ReplaceResetToken invalidates older reset tokens of the user.
func (r *GORMTokenRepository) ReplaceResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", t.UserID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete reset tokens: %w", err)
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("failed to create reset token: %w", err)
		}
		return nil
	})
}

// CheckResetToken looks the token up without consuming it.
func (r *GORMTokenRepository) CheckResetToken(ctx context.Context, token string, now time.Time) error {
	var record models.PasswordResetToken
	if err := r.db.WithContext(ctx).First(&record, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if record.Expired(now) {
		return ErrTokenInvalid
	}
	return nil
}

// ResetPassword stores the new hash and deletes the token.
func (r *GORMTokenRepository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.PasswordResetToken
		if err := tx.First(&record, "token = ?", token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return fmt.Errorf("failed to look up reset token: %w", err)
		}
		if record.Expired(now) {
			return ErrTokenInvalid
		}

		res := tx.Model(&models.User{}).Where("id = ?", record.UserID).Update("password_hash", passwordHash)
		if res.Error != nil {
			return fmt.Errorf("failed to update password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrTokenInvalid
		}
		if err := tx.Delete(&record).Error; err != nil {
			return fmt.Errorf("failed to delete reset token: %w", err)
		}
		return nil
	})
}

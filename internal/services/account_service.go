package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"skintracker/internal/cache"
	"skintracker/internal/models"
	"skintracker/internal/repositories"
)

// DeleteConfirmation must be typed by the user to delete their account.
const DeleteConfirmation = "DELETE"

// AccountService handles changes an authenticated user makes to their own account.
type AccountService struct {
	users    repositories.UserRepository
	auth     *AuthService
	cache    cache.PageCache
	validate *validator.Validate
	logger   *zap.Logger
}

// NewAccountService creates a new AccountService. Verification mail for a
// changed address goes through auth.
func NewAccountService(users repositories.UserRepository, auth *AuthService, pages cache.PageCache, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:    users,
		auth:     auth,
		cache:    pages,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *AccountService) load(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// ChangeName sets the display name and returns the stored value.
func (s *AccountService) ChangeName(ctx context.Context, userID, newName string) (string, error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return "", FieldErrors{"newName": "Display name cannot be empty"}
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	user.Name = name
	if err := s.users.Update(ctx, user); err != nil {
		return "", fmt.Errorf("failed to change display name: %w", err)
	}
	return user.Name, nil
}

// ChangeEmail replaces the address after checking the password, resets
// verification and mails a link to the new address.
func (s *AccountService) ChangeEmail(ctx context.Context, userID, newEmail, password string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(newEmail))
	errs := FieldErrors{}
	if email == "" {
		errs["newEmail"] = "New email is required"
	} else if s.validate.Var(email, "email") != nil {
		errs["newEmail"] = "Invalid email format"
	}
	if password == "" {
		errs["password"] = "Password is required"
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, &FieldError{Field: "password", Message: "No password is set for this account", Kind: ErrNotFound}
	}
	if !passwordMatches(user, password) {
		return nil, &FieldError{Field: "password", Message: "Invalid password", Kind: ErrInvalidCredentials}
	}

	if email != user.Email {
		existing, err := s.users.GetByEmail(ctx, email)
		if err == nil && existing.ID != user.ID {
			return nil, &FieldError{Field: "newEmail", Message: "Email already in use", Kind: ErrConflict}
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	user.Email = email
	user.EmailVerified = nil
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &FieldError{Field: "newEmail", Message: "Email already in use", Kind: ErrConflict}
		}
		return nil, fmt.Errorf("failed to change email: %w", err)
	}

	if err := s.auth.sendVerification(ctx, user); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// ChangePassword replaces the password. Accounts without a password may set
// one without supplying the current password.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return FieldErrors{"newPassword": "Password must be at least 8 characters long"}
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash != nil && !passwordMatches(user, currentPassword) {
		return &FieldError{Field: "currentPassword", Message: "Invalid password", Kind: ErrInvalidCredentials}
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = &hashed
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// DeleteAccount removes the user and everything they own.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, password, confirmation string) error {
	if confirmation != DeleteConfirmation {
		return FieldErrors{"confirmation": "Please type DELETE to confirm account deletion"}
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash != nil && !passwordMatches(user, password) {
		return &FieldError{Field: "password", Message: "Invalid password", Kind: ErrInvalidCredentials}
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if err := s.cache.Invalidate(ctx, cache.CollectionGroup(user.ID), cache.WishlistGroup(user.ID)); err != nil {
		s.logger.Warn("Failed to invalidate cached pages", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"skintracker/internal/mailer"
	"skintracker/internal/models"
	"skintracker/internal/repositories"
)

const (
	// MinPasswordLength applies to signup, reset and password change.
	MinPasswordLength = 8
	// TokenTTL is the lifetime of verification and reset tokens.
	TokenTTL = time.Hour
)

// Session is the identity carried by a validated session token.
type Session struct {
	UserID   string
	Username string
	Name     string
}

// SignUpInput is the payload of a registration.
type SignUpInput struct {
	Email    string
	Password string
	Username string
	Name     string
}

// AuthConfig configures AuthService.
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	BaseURL    string
}

// AuthService handles account registration, email verification, password
// reset and session tokens.
type AuthService struct {
	users      repositories.UserRepository
	tokens     repositories.TokenRepository
	mail       mailer.Sender
	templates  mailer.Templates
	logger     *zap.Logger
	jwtSecret  []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, tokens repositories.TokenRepository, mail mailer.Sender, cfg AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		mail:       mail,
		templates:  mailer.Templates{BaseURL: cfg.BaseURL},
		logger:     logger,
		jwtSecret:  []byte(cfg.JWTSecret),
		sessionTTL: cfg.SessionTTL,
		now:        time.Now,
	}
}

// SetClock replaces the time source. Tests use it to pin expiry checks.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func passwordMatches(user *models.User, password string) bool {
	if user.PasswordHash == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) == nil
}

// SignUp creates an unverified account and emails a verification link.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)

	switch {
	case email == "":
		return invalid("email", "Email cannot be empty")
	case name == "":
		return invalid("name", "Display name cannot be empty")
	case username == "":
		return invalid("username", "Username cannot be empty")
	case len(in.Password) < MinPasswordLength:
		return invalid("password", "Password must be at least 8 characters long")
	}

	taken, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email or username already taken: %w", ErrConflict)
	}

	hashed, err := hashPassword(in.Password)
	if err != nil {
		return err
	}
	user := &models.User{
		Email:        email,
		Username:     username,
		Name:         name,
		PasswordHash: &hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("email or username already taken: %w", ErrConflict)
		}
		return fmt.Errorf("failed to register user: %w", err)
	}

	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Error("Failed to send verification email", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// sendVerification replaces the user's verification tokens and mails the new one.
func (s *AuthService) sendVerification(ctx context.Context, user *models.User) error {
	token, err := newToken()
	if err != nil {
		return err
	}
	record := &models.VerificationToken{
		Token:   token,
		UserID:  user.ID,
		Expires: s.now().Add(TokenTTL),
	}
	if err := s.tokens.ReplaceVerificationToken(ctx, record); err != nil {
		return err
	}
	return s.mail.Send(ctx, s.templates.Verification(user.Email, user.DisplayName(), token))
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := s.tokens.VerifyEmail(ctx, token, s.now()); err != nil {
		if errors.Is(err, repositories.ErrTokenInvalid) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to verify email: %w", err)
	}
	return nil
}

// ResendVerification issues a fresh verification email when the identifier
// names an unverified account. It never reports whether the account exists.
func (s *AuthService) ResendVerification(ctx context.Context, identifier string) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return
	}
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("Failed to look up user for verification resend", zap.Error(err))
		}
		return
	}
	if user.IsVerified() {
		return
	}
	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Error("Failed to resend verification email", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// RequestPasswordReset mails a reset link when the email belongs to an
// account. It never reports whether the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("Failed to look up user for password reset", zap.Error(err))
		}
		return
	}

	token, err := newToken()
	if err != nil {
		s.logger.Error("Failed to create reset token", zap.Error(err))
		return
	}
	record := &models.PasswordResetToken{
		Token:   token,
		UserID:  user.ID,
		Expires: s.now().Add(TokenTTL),
	}
	if err := s.tokens.ReplaceResetToken(ctx, record); err != nil {
		s.logger.Error("Failed to store reset token", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	if err := s.mail.Send(ctx, s.templates.PasswordReset(user.Email, token)); err != nil {
		s.logger.Error("Failed to send reset email", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// ResetPassword consumes a reset token and stores the new password. A bad
// token is reported before any complaint about the password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidOrExpiredToken
	}
	if err := s.tokens.CheckResetToken(ctx, token, s.now()); err != nil {
		if errors.Is(err, repositories.ErrTokenInvalid) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to check reset token: %w", err)
	}
	if len(password) < MinPasswordLength {
		return invalid("password", "Password must be at least 8 characters long")
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.tokens.ResetPassword(ctx, token, hashed, s.now()); err != nil {
		if errors.Is(err, repositories.ErrTokenInvalid) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// Authenticate resolves the identifier and checks the password. Unverified
// accounts are rejected before the password is compared.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified() {
		return nil, ErrEmailNotVerified
	}
	if !passwordMatches(user, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a session token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, time.Time, error) {
	user, err := s.Authenticate(ctx, identifier, password)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.IssueToken(user)
}

// IssueToken signs a session token for the user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.sessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"name":     user.DisplayName(),
		"exp":      expires.Unix(),
		"iat":      now.Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken parses a session token and returns its identity.
func (s *AuthService) ValidateToken(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %v: %w", err, ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", ErrUnauthorized)
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("token has no subject: %w", ErrUnauthorized)
	}
	username, _ := claims["username"].(string)
	name, _ := claims["name"].(string)
	return &Session{UserID: userID, Username: username, Name: name}, nil
}

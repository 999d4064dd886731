package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"skintracker/internal/mailer"
	"skintracker/internal/models"
	"skintracker/internal/repositories"
	"skintracker/internal/services"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	args := m.Called(ctx, email, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockTokenRepository is a mock implementation of repositories.TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) ReplaceVerificationToken(ctx context.Context, t *models.VerificationToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTokenRepository) VerifyEmail(ctx context.Context, token string, now time.Time) error {
	args := m.Called(ctx, token, now)
	return args.Error(0)
}

func (m *MockTokenRepository) ReplaceResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTokenRepository) CheckResetToken(ctx context.Context, token string, now time.Time) error {
	args := m.Called(ctx, token, now)
	return args.Error(0)
}

func (m *MockTokenRepository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	args := m.Called(ctx, token, passwordHash, now)
	return args.Error(0)
}

// MockSender is a mock implementation of mailer.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

const testJWTSecret = "test_jwt_secret"

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newAuthService(users *MockUserRepository, tokens *MockTokenRepository, mail *MockSender) *services.AuthService {
	s := services.NewAuthService(users, tokens, mail, services.AuthConfig{
		JWTSecret:  testJWTSecret,
		SessionTTL: 24 * time.Hour,
		BaseURL:    "https://skins.example",
	}, zap.NewNop())
	s.SetClock(func() time.Time { return fixedNow })
	return s
}

func hashed(t *testing.T, password string) *string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	s := string(h)
	return &s
}

func verifiedUser(t *testing.T) *models.User {
	verified := fixedNow.Add(-time.Hour)
	return &models.User{
		ID:            "user-1",
		Email:         "test@example.com",
		Username:      "testuser",
		Name:          "Test User",
		PasswordHash:  hashed(t, "password123"),
		EmailVerified: &verified,
	}
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		users, tokens, mail := new(MockUserRepository), new(MockTokenRepository), new(MockSender)
		s := newAuthService(users, tokens, mail)

		users.On("ExistsByEmailOrUsername", ctx, "test@example.com", "testuser").Return(false, nil).Once()
		users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "test@example.com" && u.EmailVerified == nil && u.PasswordHash != nil &&
				bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte("password123")) == nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.User).ID = "user-1"
		}).Return(nil).Once()
		tokens.On("ReplaceVerificationToken", ctx, mock.MatchedBy(func(tok *models.VerificationToken) bool {
			return tok.UserID == "user-1" && len(tok.Token) == 64 && tok.Expires.Equal(fixedNow.Add(services.TokenTTL))
		})).Return(nil).Once()
		mail.On("Send", ctx, mock.MatchedBy(func(m mailer.Message) bool {
			return m.To == "test@example.com" && m.Subject == "Verify your Valorant Skin Tracker account"
		})).Return(nil).Once()

		err := s.SignUp(ctx, services.SignUpInput{
			Email:    "  Test@Example.com ",
			Password: "password123",
			Username: "testuser",
			Name:     "Test User",
		})
		assert.NoError(t, err)
		users.AssertExpectations(t)
		tokens.AssertExpectations(t)
		mail.AssertExpectations(t)
	})

	t.Run("validation", func(t *testing.T) {
		s := newAuthService(new(MockUserRepository), new(MockTokenRepository), new(MockSender))
		cases := []struct {
			in    services.SignUpInput
			field string
		}{
			{services.SignUpInput{Password: "password123", Username: "u", Name: "n"}, "email"},
			{services.SignUpInput{Email: "e@x.io", Password: "password123", Username: "u"}, "name"},
			{services.SignUpInput{Email: "e@x.io", Password: "password123", Name: "n"}, "username"},
			{services.SignUpInput{Email: "e@x.io", Password: "short", Username: "u", Name: "n"}, "password"},
		}
		for _, tc := range cases {
			err := s.SignUp(ctx, tc.in)
			var ve *services.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.ErrorIs(t, err, services.ErrValidation)
		}
	})

	t.Run("taken", func(t *testing.T) {
		users := new(MockUserRepository)
		s := newAuthService(users, new(MockTokenRepository), new(MockSender))
		users.On("ExistsByEmailOrUsername", ctx, "test@example.com", "testuser").Return(true, nil).Once()

		err := s.SignUp(ctx, services.SignUpInput{Email: "test@example.com", Password: "password123", Username: "testuser", Name: "T"})
		assert.ErrorIs(t, err, services.ErrConflict)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("mail failure does not fail signup", func(t *testing.T) {
		users, tokens, mail := new(MockUserRepository), new(MockTokenRepository), new(MockSender)
		s := newAuthService(users, tokens, mail)
		users.On("ExistsByEmailOrUsername", ctx, mock.Anything, mock.Anything).Return(false, nil)
		users.On("Create", ctx, mock.Anything).Return(nil)
		tokens.On("ReplaceVerificationToken", ctx, mock.Anything).Return(nil)
		mail.On("Send", ctx, mock.Anything).Return(errors.New("smtp down")).Once()

		err := s.SignUp(ctx, services.SignUpInput{Email: "a@b.io", Password: "password123", Username: "ab", Name: "AB"})
		assert.NoError(t, err)
		mail.AssertExpectations(t)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()
	tokens := new(MockTokenRepository)
	s := newAuthService(new(MockUserRepository), tokens, new(MockSender))

	tokens.On("VerifyEmail", ctx, "good", fixedNow).Return(nil).Once()
	tokens.On("VerifyEmail", ctx, "used", fixedNow).Return(repositories.ErrTokenInvalid).Once()

	assert.NoError(t, s.VerifyEmail(ctx, "good"))
	assert.ErrorIs(t, s.VerifyEmail(ctx, "used"), services.ErrInvalidOrExpiredToken)
	assert.ErrorIs(t, s.VerifyEmail(ctx, " "), services.ErrInvalidOrExpiredToken)
	tokens.AssertExpectations(t)
}

func TestAuthService_ResendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown identifier sends nothing", func(t *testing.T) {
		users, mail := new(MockUserRepository), new(MockSender)
		s := newAuthService(users, new(MockTokenRepository), mail)
		users.On("GetByIdentifier", ctx, "ghost").Return(nil, repositories.ErrNotFound).Once()

		s.ResendVerification(ctx, "ghost")
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("verified user sends nothing", func(t *testing.T) {
		users, mail := new(MockUserRepository), new(MockSender)
		s := newAuthService(users, new(MockTokenRepository), mail)
		users.On("GetByIdentifier", ctx, "testuser").Return(verifiedUser(t), nil).Once()

		s.ResendVerification(ctx, "testuser")
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("unverified user gets a fresh token", func(t *testing.T) {
		users, tokens, mail := new(MockUserRepository), new(MockTokenRepository), new(MockSender)
		s := newAuthService(users, tokens, mail)
		user := verifiedUser(t)
		user.EmailVerified = nil
		users.On("GetByIdentifier", ctx, "test@example.com").Return(user, nil).Once()
		tokens.On("ReplaceVerificationToken", ctx, mock.AnythingOfType("*models.VerificationToken")).Return(nil).Once()
		mail.On("Send", ctx, mock.AnythingOfType("mailer.Message")).Return(nil).Once()

		s.ResendVerification(ctx, "test@example.com")
		tokens.AssertExpectations(t)
		mail.AssertExpectations(t)
	})
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email is silent", func(t *testing.T) {
		users, tokens, mail := new(MockUserRepository), new(MockTokenRepository), new(MockSender)
		s := newAuthService(users, tokens, mail)
		users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repositories.ErrNotFound).Once()

		s.RequestPasswordReset(ctx, "Nobody@Example.com")
		tokens.AssertNotCalled(t, "ReplaceResetToken", mock.Anything, mock.Anything)
		mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("known email gets a link", func(t *testing.T) {
		users, tokens, mail := new(MockUserRepository), new(MockTokenRepository), new(MockSender)
		s := newAuthService(users, tokens, mail)
		users.On("GetByEmail", ctx, "test@example.com").Return(verifiedUser(t), nil).Once()
		tokens.On("ReplaceResetToken", ctx, mock.MatchedBy(func(tok *models.PasswordResetToken) bool {
			return tok.UserID == "user-1" && tok.Expires.Equal(fixedNow.Add(time.Hour))
		})).Return(nil).Once()
		mail.On("Send", ctx, mock.MatchedBy(func(m mailer.Message) bool {
			return m.Subject == "Reset your password"
		})).Return(nil).Once()

		s.RequestPasswordReset(ctx, "test@example.com")
		tokens.AssertExpectations(t)
		mail.AssertExpectations(t)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	tokens := new(MockTokenRepository)
	s := newAuthService(new(MockUserRepository), tokens, new(MockSender))

	assert.ErrorIs(t, s.ResetPassword(ctx, " ", "new-password"), services.ErrInvalidOrExpiredToken)

	tokens.On("CheckResetToken", ctx, "expired", fixedNow).Return(repositories.ErrTokenInvalid).Twice()
	assert.ErrorIs(t, s.ResetPassword(ctx, "expired", "new-password"), services.ErrInvalidOrExpiredToken)
	err := s.ResetPassword(ctx, "expired", "short")
	assert.ErrorIs(t, err, services.ErrInvalidOrExpiredToken, "token is checked before the password")
	assert.NotErrorIs(t, err, services.ErrValidation)

	tokens.On("CheckResetToken", ctx, "tok", fixedNow).Return(nil).Once()
	assert.ErrorIs(t, s.ResetPassword(ctx, "tok", "short"), services.ErrValidation)

	tokens.On("ResetPassword", ctx, "gone", mock.AnythingOfType("string"), fixedNow).Return(repositories.ErrTokenInvalid).Once()
	tokens.On("CheckResetToken", ctx, "gone", fixedNow).Return(nil).Once()
	assert.ErrorIs(t, s.ResetPassword(ctx, "gone", "new-password"), services.ErrInvalidOrExpiredToken, "consumed in between")

	tokens.On("CheckResetToken", ctx, "good", fixedNow).Return(nil).Once()
	tokens.On("ResetPassword", ctx, "good", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password")) == nil
	}), fixedNow).Return(nil).Once()
	assert.NoError(t, s.ResetPassword(ctx, "good", "new-password"))
	tokens.AssertExpectations(t)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user", func(t *testing.T) {
		users := new(MockUserRepository)
		s := newAuthService(users, new(MockTokenRepository), new(MockSender))
		users.On("GetByIdentifier", ctx, "ghost").Return(nil, repositories.ErrNotFound).Once()
		_, err := s.Authenticate(ctx, "ghost", "password123")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("passwordless account", func(t *testing.T) {
		users := new(MockUserRepository)
		s := newAuthService(users, new(MockTokenRepository), new(MockSender))
		user := verifiedUser(t)
		user.PasswordHash = nil
		users.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()
		_, err := s.Authenticate(ctx, "testuser", "password123")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unverified is checked before the password", func(t *testing.T) {
		users := new(MockUserRepository)
		s := newAuthService(users, new(MockTokenRepository), new(MockSender))
		user := verifiedUser(t)
		user.EmailVerified = nil
		users.On("GetByIdentifier", ctx, "testuser").Return(user, nil).Once()
		_, err := s.Authenticate(ctx, "testuser", "wrong-password")
		assert.ErrorIs(t, err, services.ErrEmailNotVerified)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		s := newAuthService(users, new(MockTokenRepository), new(MockSender))
		users.On("GetByIdentifier", ctx, "testuser").Return(verifiedUser(t), nil).Once()
		_, err := s.Authenticate(ctx, "testuser", "wrong-password")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		users := new(MockUserRepository)
		s := newAuthService(users, new(MockTokenRepository), new(MockSender))
		users.On("GetByIdentifier", ctx, "testuser").Return(verifiedUser(t), nil).Once()
		user, err := s.Authenticate(ctx, "testuser", "password123")
		require.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
	})
}

func TestAuthService_Tokens(t *testing.T) {
	s := services.NewAuthService(new(MockUserRepository), new(MockTokenRepository), new(MockSender), services.AuthConfig{
		JWTSecret:  testJWTSecret,
		SessionTTL: time.Hour,
	}, zap.NewNop())
	user := verifiedUser(t)

	token, expires, err := s.IssueToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	session, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, &services.Session{UserID: "user-1", Username: "testuser", Name: "Test User"}, session)

	t.Run("wrong secret", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": "user-1",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		signed, err := forged.SignedString([]byte("other_secret"))
		require.NoError(t, err)
		_, err = s.ValidateToken(signed)
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		old := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": "user-1",
			"exp":     time.Now().Add(-time.Minute).Unix(),
		})
		signed, err := old.SignedString([]byte(testJWTSecret))
		require.NoError(t, err)
		_, err = s.ValidateToken(signed)
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, services.ErrUnauthorized)
	})
}

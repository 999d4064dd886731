package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skintracker/internal/models"
	"skintracker/internal/repositories"
)

func TestGORMTokenRepository_VerifyEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tokens := repositories.NewGORMTokenRepository(db)
	users := repositories.NewGORMUserRepository(db)
	user := seedUser(t, db, "ana")

	require.NoError(t, tokens.ReplaceVerificationToken(ctx, &models.VerificationToken{
		Token: "first", UserID: user.ID, Expires: testNow.Add(time.Hour),
	}))
	require.NoError(t, tokens.ReplaceVerificationToken(ctx, &models.VerificationToken{
		Token: "second", UserID: user.ID, Expires: testNow.Add(time.Hour),
	}))

	assert.ErrorIs(t, tokens.VerifyEmail(ctx, "first", testNow), repositories.ErrTokenInvalid, "replaced token must be dead")
	require.NoError(t, tokens.VerifyEmail(ctx, "second", testNow))

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EmailVerified)
	assert.True(t, got.EmailVerified.Equal(testNow))

	assert.ErrorIs(t, tokens.VerifyEmail(ctx, "second", testNow), repositories.ErrTokenInvalid, "tokens are single use")
}

func TestGORMTokenRepository_VerifyEmailExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tokens := repositories.NewGORMTokenRepository(db)
	user := seedUser(t, db, "ana")

	expires := testNow.Add(time.Hour)
	require.NoError(t, tokens.ReplaceVerificationToken(ctx, &models.VerificationToken{
		Token: "tok", UserID: user.ID, Expires: expires,
	}))

	assert.ErrorIs(t, tokens.VerifyEmail(ctx, "tok", expires), repositories.ErrTokenInvalid)
	assert.ErrorIs(t, tokens.VerifyEmail(ctx, "unknown", testNow), repositories.ErrTokenInvalid)
}

func TestGORMTokenRepository_ResetPassword(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tokens := repositories.NewGORMTokenRepository(db)
	users := repositories.NewGORMUserRepository(db)
	user := seedUser(t, db, "ana")

	require.NoError(t, tokens.ReplaceResetToken(ctx, &models.PasswordResetToken{
		Token: "reset", UserID: user.ID, Expires: testNow.Add(time.Hour),
	}))
	require.NoError(t, tokens.CheckResetToken(ctx, "reset", testNow))
	assert.ErrorIs(t, tokens.CheckResetToken(ctx, "reset", testNow.Add(time.Hour)), repositories.ErrTokenInvalid)
	assert.ErrorIs(t, tokens.CheckResetToken(ctx, "unknown", testNow), repositories.ErrTokenInvalid)
	require.NoError(t, tokens.ResetPassword(ctx, "reset", "new-hash", testNow))

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, "new-hash", *got.PasswordHash)

	assert.ErrorIs(t, tokens.ResetPassword(ctx, "reset", "again", testNow), repositories.ErrTokenInvalid)
	assert.ErrorIs(t, tokens.CheckResetToken(ctx, "reset", testNow), repositories.ErrTokenInvalid, "consumed")
}

package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"skintracker/internal/models"
	"skintracker/internal/repositories"
)

// newTestDB opens a private in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.Open("sqlite", "file::memory:", gormlogger.Default.LogMode(gormlogger.Silent))
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedSkin(t *testing.T, db *gorm.DB, id, name, weapon string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Skin{
		ID:       id,
		Name:     name,
		Weapon:   weapon,
		Tier:     models.UnknownTier,
		ImageURL: ptr("https://img/" + id + ".png"),
	}).Error)
}

func seedUser(t *testing.T, db *gorm.DB, username string, password *string) *models.User {
	t.Helper()
	user := &models.User{
		Email:         username + "@example.com",
		Username:      username,
		Name:          username,
		PasswordHash:  password,
		EmailVerified: &fixedNow,
	}
	require.NoError(t, repositories.NewGORMUserRepository(db).Create(context.Background(), user))
	return user
}

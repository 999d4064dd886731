package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

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

func strPtr(s string) *string { return &s }

func seedSkin(t *testing.T, db *gorm.DB, id, name, weapon string) models.Skin {
	t.Helper()
	skin := models.Skin{
		ID:       id,
		Name:     name,
		Weapon:   weapon,
		Tier:     models.UnknownTier,
		ImageURL: strPtr("https://img/" + id + ".png"),
	}
	require.NoError(t, db.Create(&skin).Error)
	return skin
}

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	repo := repositories.NewGORMUserRepository(db)
	user := models.User{
		Email:    username + "@example.com",
		Username: username,
		Name:     username,
	}
	require.NoError(t, repo.Create(context.Background(), &user))
	return user
}

func seedSkins(t *testing.T, db *gorm.DB, n int, weapon string) []models.Skin {
	t.Helper()
	skins := make([]models.Skin, 0, n)
	for i := 0; i < n; i++ {
		skins = append(skins, seedSkin(t, db, fmt.Sprintf("%s-%02d", weapon, i), fmt.Sprintf("%s Skin %02d", weapon, i), weapon))
	}
	return skins
}

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

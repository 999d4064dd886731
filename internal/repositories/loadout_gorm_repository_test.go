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

func TestGORMLoadoutRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMLoadoutRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	vandal := seedSkin(t, db, "v1", "Prime Vandal", "Vandal")
	phantom := seedSkin(t, db, "p1", "Prime Phantom", "Phantom")

	loadout := &models.Loadout{
		UserID: user.ID,
		Name:   "Prime",
		Icon:   strPtr("icon.png"),
		Entries: []models.LoadoutEntry{
			{Weapon: "Vandal", SkinID: vandal.ID},
			{Weapon: "Phantom", SkinID: phantom.ID},
		},
	}
	require.NoError(t, repo.Create(ctx, loadout, models.MaxLoadoutsPerUser))
	require.NotEmpty(t, loadout.ID)

	got, err := repo.GetByID(ctx, loadout.ID)
	require.NoError(t, err)
	assert.Equal(t, "Prime", got.Name)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "Phantom", got.Entries[0].Weapon)
	require.NotNil(t, got.Entries[0].Skin)
	assert.Equal(t, "Prime Phantom", got.Entries[0].Skin.Name)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMLoadoutRepository_Limit(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMLoadoutRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	other := seedUser(t, db, "bob")

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.Create(ctx, &models.Loadout{UserID: user.ID, Name: "L"}, 2))
	}
	err := repo.Create(ctx, &models.Loadout{UserID: user.ID, Name: "L"}, 2)
	assert.ErrorIs(t, err, repositories.ErrLimitReached)

	require.NoError(t, repo.Create(ctx, &models.Loadout{UserID: other.ID, Name: "L"}, 2), "limit is per user")
}

func TestGORMLoadoutRepository_CreateWithoutOwner(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMLoadoutRepository(db)
	ctx := context.Background()
	skin := seedSkin(t, db, "v1", "Prime Vandal", "Vandal")

	err := repo.Create(ctx, &models.Loadout{
		UserID:  "no-such-user",
		Name:    "Orphan",
		Entries: []models.LoadoutEntry{{Weapon: "Vandal", SkinID: skin.ID}},
	}, models.MaxLoadoutsPerUser)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Loadout{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.LoadoutEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGORMLoadoutRepository_ListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMLoadoutRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")

	for i, name := range []string{"old", "mid", "new"} {
		l := &models.Loadout{UserID: user.ID, Name: name, CreatedAt: testNow.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, l, models.MaxLoadoutsPerUser))
	}

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].Name, list[1].Name, list[2].Name})

	none, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGORMLoadoutRepository_Replace(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMLoadoutRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	vandal := seedSkin(t, db, "v1", "Prime Vandal", "Vandal")
	sheriff := seedSkin(t, db, "s1", "Prime Sheriff", "Sheriff")

	loadout := &models.Loadout{
		UserID:  user.ID,
		Name:    "Prime",
		Icon:    strPtr("icon.png"),
		Entries: []models.LoadoutEntry{{Weapon: "Vandal", SkinID: vandal.ID}},
	}
	require.NoError(t, repo.Create(ctx, loadout, models.MaxLoadoutsPerUser))

	loadout.Name = "Renamed"
	loadout.Icon = nil
	loadout.UpdatedAt = testNow
	loadout.Entries = []models.LoadoutEntry{{Weapon: "Sheriff", SkinID: sheriff.ID}}
	require.NoError(t, repo.Replace(ctx, loadout))

	got, err := repo.GetByID(ctx, loadout.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Nil(t, got.Icon)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "Sheriff", got.Entries[0].Weapon)

	loadout.ID = "missing"
	assert.ErrorIs(t, repo.Replace(ctx, loadout), repositories.ErrNotFound)
}

func TestGORMLoadoutRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMLoadoutRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	vandal := seedSkin(t, db, "v1", "Prime Vandal", "Vandal")

	loadout := &models.Loadout{
		UserID:  user.ID,
		Name:    "Prime",
		Entries: []models.LoadoutEntry{{Weapon: "Vandal", SkinID: vandal.ID}},
	}
	require.NoError(t, repo.Create(ctx, loadout, models.MaxLoadoutsPerUser))
	require.NoError(t, repo.Delete(ctx, loadout.ID))

	var entries int64
	require.NoError(t, db.Model(&models.LoadoutEntry{}).Count(&entries).Error)
	assert.Zero(t, entries)

	assert.ErrorIs(t, repo.Delete(ctx, loadout.ID), repositories.ErrNotFound)
}

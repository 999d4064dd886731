package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skintracker/internal/models"
	"skintracker/internal/repositories"
)

func TestGORMMembershipRepository_MutualExclusion(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMMembershipRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	skin := seedSkin(t, db, "s1", "Prime Vandal", "Vandal")

	membership := func() (bool, bool) {
		c, err := repo.Members(ctx, models.Collection, user.ID, []string{skin.ID})
		require.NoError(t, err)
		w, err := repo.Members(ctx, models.Wishlist, user.ID, []string{skin.ID})
		require.NoError(t, err)
		return c[skin.ID], w[skin.ID]
	}

	require.NoError(t, repo.Add(ctx, models.Wishlist, user.ID, skin.ID))
	inCollection, inWishlist := membership()
	assert.False(t, inCollection)
	assert.True(t, inWishlist)

	require.NoError(t, repo.Add(ctx, models.Collection, user.ID, skin.ID))
	inCollection, inWishlist = membership()
	assert.True(t, inCollection)
	assert.False(t, inWishlist)

	require.NoError(t, repo.Add(ctx, models.Wishlist, user.ID, skin.ID))
	inCollection, inWishlist = membership()
	assert.False(t, inCollection)
	assert.True(t, inWishlist)
}

func TestGORMMembershipRepository_Idempotent(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMMembershipRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	skin := seedSkin(t, db, "s1", "Prime Vandal", "Vandal")

	require.NoError(t, repo.Add(ctx, models.Collection, user.ID, skin.ID))
	require.NoError(t, repo.Add(ctx, models.Collection, user.ID, skin.ID))

	var count int64
	require.NoError(t, db.Model(&models.CollectionEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Remove(ctx, models.Collection, user.ID, skin.ID))
	require.NoError(t, repo.Remove(ctx, models.Collection, user.ID, skin.ID))
	require.NoError(t, db.Model(&models.CollectionEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGORMMembershipRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMMembershipRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	other := seedUser(t, db, "bob")
	skins := seedSkins(t, db, 5, "Vandal")
	phantom := seedSkin(t, db, "p1", "Aaa Phantom", "Phantom")

	for _, s := range skins[:3] {
		require.NoError(t, repo.Add(ctx, models.Collection, user.ID, s.ID))
	}
	require.NoError(t, repo.Add(ctx, models.Collection, user.ID, phantom.ID))
	require.NoError(t, repo.Add(ctx, models.Collection, other.ID, skins[4].ID))

	list, err := repo.List(ctx, models.Collection, user.ID, models.SkinFilter{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "Aaa Phantom", list[0].Name)

	page, err := repo.List(ctx, models.Collection, user.ID, models.SkinFilter{Weapon: "Vandal", Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, skins[2].ID, page[0].ID)

	wishlist, err := repo.List(ctx, models.Wishlist, user.ID, models.SkinFilter{})
	require.NoError(t, err)
	assert.Empty(t, wishlist)
}

func TestGORMMembershipRepository_AddRequiresUserAndSkin(t *testing.T) {
	db := newTestDB(t)
	repo := repositories.NewGORMMembershipRepository(db)
	ctx := context.Background()
	user := seedUser(t, db, "ana")
	skin := seedSkin(t, db, "s1", "Prime Vandal", "Vandal")

	assert.ErrorIs(t, repo.Add(ctx, models.Collection, "no-such-user", skin.ID), repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Add(ctx, models.Wishlist, user.ID, "no-such-skin"), repositories.ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.CollectionEntry{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.WishlistEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}

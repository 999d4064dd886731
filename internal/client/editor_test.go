package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skintracker/internal/client"
	"skintracker/internal/models"
)

type fakeSaver struct {
	err     error
	created []client.LoadoutPayload
	updated map[string]client.LoadoutPayload
	nextID  string
}

func (f *fakeSaver) view(id string, p client.LoadoutPayload) *models.LoadoutView {
	v := &models.LoadoutView{ID: id, Name: p.Name, Icon: p.Icon}
	for weapon, skinID := range p.Entries {
		if skinID != nil {
			v.Entries = append(v.Entries, models.LoadoutEntryView{Weapon: weapon, SkinID: *skinID})
		}
	}
	return v
}

func (f *fakeSaver) CreateLoadout(_ context.Context, p client.LoadoutPayload) (*models.LoadoutView, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	return f.view(f.nextID, p), nil
}

func (f *fakeSaver) UpdateLoadout(_ context.Context, id string, p client.LoadoutPayload) (*models.LoadoutView, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.updated == nil {
		f.updated = map[string]client.LoadoutPayload{}
	}
	f.updated[id] = p
	return f.view(id, p), nil
}

func str(s string) *string { return &s }

func TestEditor_NewLoadout(t *testing.T) {
	saver := &fakeSaver{nextID: "l1"}
	e := client.NewEditor(saver, "Main")

	assert.Equal(t, client.UnsavedNew, e.State())
	assert.False(t, e.NeedsConfirmation())

	require.NoError(t, e.Select("Vandal", str("s1")))
	assert.Equal(t, client.UnsavedNew, e.State())
	assert.True(t, e.NeedsConfirmation())

	saver.err = errors.New("offline")
	require.Error(t, e.Save(context.Background()))
	assert.Equal(t, client.UnsavedNew, e.State())
	assert.Empty(t, e.ID())

	saver.err = nil
	require.NoError(t, e.Save(context.Background()))
	assert.Equal(t, client.SavedClean, e.State())
	assert.Equal(t, "l1", e.ID())
	assert.False(t, e.NeedsConfirmation())
	require.Len(t, saver.created, 1)
	assert.Equal(t, "s1", *saver.created[0].Entries["Vandal"])
}

func TestEditor_ExistingLoadout(t *testing.T) {
	saver := &fakeSaver{}
	e := client.OpenEditor(saver, models.LoadoutView{
		ID:      "l9",
		Name:    "Main",
		Icon:    str("https://img/icon.png"),
		Entries: []models.LoadoutEntryView{{Weapon: "Vandal", SkinID: "s1"}},
	})
	assert.Equal(t, client.SavedClean, e.State())
	assert.False(t, e.NeedsConfirmation())

	assert.Error(t, e.Select("Bazooka", str("s2")))
	assert.Equal(t, client.SavedClean, e.State())

	require.NoError(t, e.Select("Phantom", str("s2")))
	require.NoError(t, e.Select("Vandal", nil))
	assert.Equal(t, client.SavedDirty, e.State())
	assert.True(t, e.NeedsConfirmation())

	saver.err = errors.New("offline")
	require.Error(t, e.Save(context.Background()))
	assert.Equal(t, client.SavedDirty, e.State())

	saver.err = nil
	require.NoError(t, e.Save(context.Background()))
	assert.Equal(t, client.SavedClean, e.State())
	assert.Equal(t, map[string]string{"Phantom": "s2"}, e.Assignments())

	sent := saver.updated["l9"]
	assert.Equal(t, "https://img/icon.png", *sent.Icon)
	assert.Nil(t, sent.Entries["Vandal"])
	assert.Contains(t, sent.Entries, "Vandal")
}

func TestEditorState_String(t *testing.T) {
	assert.Equal(t, "unsaved", client.UnsavedNew.String())
	assert.Equal(t, "modified", client.SavedDirty.String())
}

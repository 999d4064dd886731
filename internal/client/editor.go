package client

import (
	"context"
	"fmt"
	"maps"

	"skintracker/internal/models"
)

// EditorState is the save state of a loadout being edited.
type EditorState int

const (
	UnsavedNew EditorState = iota
	SavedClean
	SavedDirty
)

func (s EditorState) String() string {
	switch s {
	case UnsavedNew:
		return "unsaved"
	case SavedClean:
		return "saved"
	case SavedDirty:
		return "modified"
	default:
		return fmt.Sprintf("EditorState(%d)", int(s))
	}
}

// LoadoutSaver persists loadouts. *Client satisfies it.
type LoadoutSaver interface {
	CreateLoadout(ctx context.Context, p LoadoutPayload) (*models.LoadoutView, error)
	UpdateLoadout(ctx context.Context, id string, p LoadoutPayload) (*models.LoadoutView, error)
}

// Editor tracks the local copy of one loadout. Updates always send the full
// entry set.
type Editor struct {
	saver   LoadoutSaver
	state   EditorState
	id      string
	name    string
	icon    *string
	entries map[string]*string
	edited  bool
}

// NewEditor starts an unsaved loadout.
func NewEditor(saver LoadoutSaver, name string) *Editor {
	return &Editor{saver: saver, state: UnsavedNew, name: name, entries: map[string]*string{}}
}

// OpenEditor edits an existing loadout.
func OpenEditor(saver LoadoutSaver, v models.LoadoutView) *Editor {
	e := &Editor{saver: saver}
	e.load(v)
	return e
}

func (e *Editor) load(v models.LoadoutView) {
	e.state = SavedClean
	e.id = v.ID
	e.name = v.Name
	e.icon = v.Icon
	e.entries = map[string]*string{}
	for weapon, skinID := range v.Assignments() {
		id := skinID
		e.entries[weapon] = &id
	}
	e.edited = false
}

func (e *Editor) touch() {
	e.edited = true
	if e.state == SavedClean {
		e.state = SavedDirty
	}
}

// Select assigns skinID to weapon. A nil skinID clears the slot.
func (e *Editor) Select(weapon string, skinID *string) error {
	if !models.IsWeapon(weapon) {
		return fmt.Errorf("unknown weapon %q", weapon)
	}
	e.entries[weapon] = skinID
	e.touch()
	return nil
}

// Rename changes the loadout name.
func (e *Editor) Rename(name string) {
	e.name = name
	e.touch()
}

// Save creates or replaces the loadout. On failure the state is unchanged
// and the error is returned.
func (e *Editor) Save(ctx context.Context) error {
	p := LoadoutPayload{Name: e.name, Icon: e.icon, Entries: maps.Clone(e.entries)}
	var (
		v   *models.LoadoutView
		err error
	)
	if e.state == UnsavedNew {
		v, err = e.saver.CreateLoadout(ctx, p)
	} else {
		v, err = e.saver.UpdateLoadout(ctx, e.id, p)
	}
	if err != nil {
		return err
	}
	e.load(*v)
	return nil
}

// NeedsConfirmation reports whether leaving now would lose edits.
func (e *Editor) NeedsConfirmation() bool {
	return e.state == SavedDirty || (e.state == UnsavedNew && e.edited)
}

// State returns the current save state.
func (e *Editor) State() EditorState { return e.state }

// ID returns the server id, empty until the first save.
func (e *Editor) ID() string { return e.id }

// Assignments returns the assigned weapon to skin id pairs.
func (e *Editor) Assignments() map[string]string {
	out := map[string]string{}
	for weapon, id := range e.entries {
		if id != nil {
			out[weapon] = *id
		}
	}
	return out
}

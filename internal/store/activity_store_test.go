package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binventory/internal/db"
	"binventory/internal/domain"
)

func addedEntry(locationID string, items ...string) *domain.ActivityEntry {
	return &domain.ActivityEntry{
		LocationID: locationID,
		UserID:     "user-1",
		UserName:   "Sam",
		Action:     "update",
		EntityType: "bin",
		EntityID:   "bin-1",
		EntityName: "Tools",
		AuthMethod: "header",
		Changes: map[string]domain.FieldChange{
			"items_added": {Old: nil, New: items},
		},
	}
}

// clockedStore returns an activity store whose clock reads from *at.
func clockedStore(d *ActivityStore, at *time.Time) *ActivityStore {
	d.now = func() time.Time { return *at }
	return d
}

func TestActivityLogAndList(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	s := NewActivityStore(d)
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Hammer")))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, "update", entry.Action)
	assert.Equal(t, "bin", entry.EntityType)
	assert.Equal(t, []any{"Hammer"}, entry.Changes["items_added"].New)
	assert.Nil(t, entry.Changes["items_added"].Old)
}

func TestActivityMergesItemChangesWithinWindow(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := clockedStore(NewActivityStore(d), &at)
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Hammer")))

	at = at.Add(60 * time.Second)
	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Wrench", "Hammer")))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1, "second write must fold into the first")
	assert.Equal(t, []any{"Hammer", "Wrench"}, entries[0].Changes["items_added"].New,
		"lists union in call order without duplicates")
}

func TestActivityMergeWindowSlides(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := clockedStore(NewActivityStore(d), &at)
	ctx := context.Background()

	// Each merge refreshes the entry's timestamp, so a steady trickle of
	// edits keeps folding into the same entry.
	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Hammer")))
	at = at.Add(110 * time.Second)
	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Wrench")))
	at = at.Add(110 * time.Second)
	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Pliers")))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"Hammer", "Wrench", "Pliers"}, entries[0].Changes["items_added"].New)
}

func TestActivityDoesNotMergeOutsideWindow(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := clockedStore(NewActivityStore(d), &at)
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Hammer")))

	at = at.Add(121 * time.Second)
	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Wrench")))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestActivityDoesNotMergeAcrossUsers(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	s := NewActivityStore(d)
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Hammer")))

	other := addedEntry(loc.ID, "Wrench")
	other.UserID = "user-2"
	other.UserName = "Alex"
	require.NoError(t, s.Log(ctx, other))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestActivityDoesNotMergeMixedChanges(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := clockedStore(NewActivityStore(d), &at)
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Hammer")))

	at = at.Add(10 * time.Second)
	rename := addedEntry(loc.ID)
	rename.Changes = map[string]domain.FieldChange{
		"name": {Old: "Tools", New: "Hand Tools"},
	}
	require.NoError(t, s.Log(ctx, rename))

	// Only the newest entry is a merge candidate, so the rename sitting
	// between the two item changes keeps them apart.
	at = at.Add(10 * time.Second)
	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Wrench")))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestActivityMergesRemovedItems(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	s := NewActivityStore(d)
	ctx := context.Background()

	removed := func(items ...string) *domain.ActivityEntry {
		e := addedEntry(loc.ID)
		e.Changes = map[string]domain.FieldChange{
			"items_removed": {Old: items, New: nil},
		}
		return e
	}

	require.NoError(t, s.Log(ctx, removed("Hammer")))
	require.NoError(t, s.Log(ctx, removed("Wrench")))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"Hammer", "Wrench"}, entries[0].Changes["items_removed"].Old)
	assert.Nil(t, entries[0].Changes["items_removed"].New)
}

func TestActivityPrunesOldEntries(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := clockedStore(NewActivityStore(d), &at)
	ctx := context.Background()

	// Default retention is 90 days; this entry is well past it.
	old := addedEntry(loc.ID, "Hammer")
	require.NoError(t, s.insert(ctx, old, at.AddDate(0, 0, -120)))

	require.NoError(t, s.Log(ctx, addedEntry(loc.ID, "Wrench")))

	entries, err := s.ListByLocation(ctx, loc.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"Wrench"}, entries[0].Changes["items_added"].New)
}

func TestActivityListLimit(t *testing.T) {
	d := db.NewTestDB(t)
	loc := createTestLocation(t, d, "Garage")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := clockedStore(NewActivityStore(d), &at)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := addedEntry(loc.ID, "Hammer")
		entry.EntityID = string(rune('a' + i))
		require.NoError(t, s.Log(ctx, entry))
		at = at.Add(5 * time.Minute)
	}

	entries, err := s.ListByLocation(ctx, loc.ID, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestUnionLists(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, unionLists([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"a"}, unionLists(nil, []string{"a"}))
	assert.Equal(t, []string{"a"}, unionLists([]string{"a"}, nil))
}

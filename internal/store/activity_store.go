package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"binventory/internal/domain"
)

// mergeWindow is how far back Log looks for an existing entry to fold a new
// item-list change into, instead of inserting a new row.
const mergeWindow = 120 * time.Second

// mergeableKeys are the only change-map keys that participate in merging.
// Other field changes (name, notes, tags) always get their own entry.
var mergeableKeys = map[string]bool{
	"items_added":   true,
	"items_removed": true,
}

type ActivityStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db, now: time.Now}
}

// Log inserts an activity entry, or merges it into a recent entry for the
// same actor and entity when both consist only of item add/remove changes.
// After every write it prunes entries older than the owning location's
// retention setting; pruning failures are logged and swallowed.
func (s *ActivityStore) Log(ctx context.Context, entry *domain.ActivityEntry) error {
	now := s.now().UTC()

	if isMergeable(entry.Changes) {
		merged, err := s.tryMerge(ctx, entry, now)
		if err != nil {
			return err
		}
		if merged {
			s.prune(ctx, entry.LocationID, now)
			return nil
		}
	}

	if err := s.insert(ctx, entry, now); err != nil {
		return err
	}

	s.prune(ctx, entry.LocationID, now)
	return nil
}

func (s *ActivityStore) insert(ctx context.Context, entry *domain.ActivityEntry, now time.Time) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	changes, err := encodeChanges(entry.Changes)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, location_id, user_id, user_name, action, entity_type, entity_id, entity_name, changes, auth_method, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.LocationID, entry.UserID, entry.UserName, entry.Action,
		entry.EntityType, entry.EntityID, entry.EntityName, changes, entry.AuthMethod, now)
	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}

	return nil
}

// tryMerge looks for an entry by the same user for the same entity within
// the merge window whose changes are all item-list changes, and unions the
// new entry's lists into it in place. Returns true if a merge happened.
func (s *ActivityStore) tryMerge(ctx context.Context, entry *domain.ActivityEntry, now time.Time) (bool, error) {
	cutoff := now.Add(-mergeWindow)

	var id, rawChanges string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, changes FROM activity_log
		WHERE user_id = ? AND action = ? AND entity_type = ? AND entity_id = ?
		  AND location_id = ? AND auth_method = ? AND created_at >= ?
		ORDER BY created_at DESC LIMIT 1
	`, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.LocationID, entry.AuthMethod, cutoff).Scan(&id, &rawChanges)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find merge candidate: %w", err)
	}

	existing := map[string]domain.FieldChange{}
	if err := json.Unmarshal([]byte(rawChanges), &existing); err != nil {
		return false, fmt.Errorf("failed to decode merge candidate changes: %w", err)
	}
	if !isMergeable(existing) {
		return false, nil
	}

	if added, ok := entry.Changes["items_added"]; ok {
		prev := existing["items_added"]
		existing["items_added"] = domain.FieldChange{
			Old: nil,
			New: unionLists(asStringList(prev.New), asStringList(added.New)),
		}
	}
	if removed, ok := entry.Changes["items_removed"]; ok {
		prev := existing["items_removed"]
		existing["items_removed"] = domain.FieldChange{
			Old: unionLists(asStringList(prev.Old), asStringList(removed.Old)),
			New: nil,
		}
	}

	changes, err := encodeChanges(existing)
	if err != nil {
		return false, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE activity_log SET changes = ?, created_at = ? WHERE id = ?
	`, changes, now, id)
	if err != nil {
		return false, fmt.Errorf("failed to merge activity entry: %w", err)
	}

	return true, nil
}

// prune deletes the location's entries older than its retention setting.
// Best effort: an error here must never fail the write that triggered it.
func (s *ActivityStore) prune(ctx context.Context, locationID string, now time.Time) {
	var days int
	err := s.db.QueryRowContext(ctx,
		`SELECT activity_retention_days FROM locations WHERE id = ?`, locationID,
	).Scan(&days)
	if err != nil {
		slog.Error("activity prune: failed to read retention setting", "location_id", locationID, "error", err)
		return
	}
	if days <= 0 {
		return
	}

	cutoff := now.AddDate(0, 0, -days)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM activity_log WHERE location_id = ? AND created_at < ?`, locationID, cutoff,
	); err != nil {
		slog.Error("activity prune failed", "location_id", locationID, "error", err)
	}
}

func (s *ActivityStore) ListByLocation(ctx context.Context, locationID string, limit int) ([]*domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location_id, user_id, user_name, action, entity_type, entity_id, entity_name, changes, auth_method, created_at
		FROM activity_log WHERE location_id = ? ORDER BY created_at DESC LIMIT ?
	`, locationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var entries []*domain.ActivityEntry
	for rows.Next() {
		entry := &domain.ActivityEntry{}
		var changes string
		if err := rows.Scan(&entry.ID, &entry.LocationID, &entry.UserID, &entry.UserName,
			&entry.Action, &entry.EntityType, &entry.EntityID, &entry.EntityName,
			&changes, &entry.AuthMethod, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if err := json.Unmarshal([]byte(changes), &entry.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode changes for entry %s: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}

func encodeChanges(changes map[string]domain.FieldChange) (string, error) {
	if changes == nil {
		changes = map[string]domain.FieldChange{}
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return "", fmt.Errorf("failed to encode changes: %w", err)
	}
	return string(data), nil
}

func isMergeable(changes map[string]domain.FieldChange) bool {
	if len(changes) == 0 {
		return false
	}
	for key := range changes {
		if !mergeableKeys[key] {
			return false
		}
	}
	return true
}

// asStringList normalizes a change value that may be []string (fresh entry)
// or []any (after a JSON round-trip through the database).
func asStringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// unionLists appends items from b that are not already in a, preserving
// call order.
func unionLists(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, item := range a {
		seen[item] = true
	}
	out := append([]string{}, a...)
	for _, item := range b {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

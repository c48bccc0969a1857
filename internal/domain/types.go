package domain

import "time"

// Location is the top-level tenant of the catalog. Every area, bin and
// activity entry belongs to exactly one location. AI settings live on the
// location so each one can point at a different provider.
type Location struct {
	ID                    string
	Name                  string
	ActivityRetentionDays int
	AIProvider            string
	AIAPIKey              string
	AIModel               string
	AIEndpointURL         string
	CreatedAt             time.Time
}

type Area struct {
	ID         string
	LocationID string
	Name       string
	CreatedAt  time.Time
}

// Bin is a physical container. Items and tags are plain string lists stored
// as JSON in the database. A non-nil DeletedAt means the bin is in the trash
// and hidden from normal listings until restored.
type Bin struct {
	ID         string
	LocationID string
	AreaID     *string
	Name       string
	Items      []string
	Tags       []string
	Notes      string
	Icon       string
	Color      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// Trashed reports whether the bin is currently in the trash.
func (b *Bin) Trashed() bool {
	return b.DeletedAt != nil
}

// FieldChange is one before/after pair in an activity entry's change map.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ActivityEntry is one audit record. Changes maps field names to their
// before/after values and is serialized as JSON in the database.
type ActivityEntry struct {
	ID         string
	LocationID string
	UserID     string
	UserName   string
	Action     string
	EntityType string
	EntityID   string
	EntityName string
	Changes    map[string]FieldChange
	AuthMethod string
	CreatedAt  time.Time
}

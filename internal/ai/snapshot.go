package ai

import "binventory/internal/domain"

// DefaultColors and DefaultIcons are offered to the model so it picks
// values the UI can render.
var (
	DefaultColors = []string{"red", "orange", "yellow", "green", "teal", "blue", "purple", "pink", "brown", "gray"}
	DefaultIcons  = []string{"box", "toolbox", "wrench", "bolt", "plug", "paint", "garden", "kitchen", "book", "cable", "camping", "holiday"}
)

// Snapshot is the read-only projection of one location's inventory that is
// serialized into the model prompt and that actions are validated against.
// Referential validity is point-in-time: the store can change between
// validation and execution.
type Snapshot struct {
	Bins            []SnapshotBin `json:"bins"`
	Areas           []string      `json:"areas"`
	Trash           []SnapshotBin `json:"trash,omitempty"`
	AvailableColors []string      `json:"available_colors,omitempty"`
	AvailableIcons  []string      `json:"available_icons,omitempty"`
}

type SnapshotBin struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Area  string   `json:"area,omitempty"`
	Items []string `json:"items,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`
	Icon  string   `json:"icon,omitempty"`
	Color string   `json:"color,omitempty"`
}

// KnownBinIDs returns the set of bin IDs an action may reference. Trashed
// bins are included so restore_bin can target them.
func (s *Snapshot) KnownBinIDs() map[string]bool {
	known := make(map[string]bool, len(s.Bins)+len(s.Trash))
	for _, bin := range s.Bins {
		known[bin.ID] = true
	}
	for _, bin := range s.Trash {
		known[bin.ID] = true
	}
	return known
}

// SnapshotFromBin converts a stored bin into its snapshot form. areaName is
// resolved by the caller since the snapshot carries names, not IDs.
func SnapshotFromBin(bin *domain.Bin, areaName string) SnapshotBin {
	return SnapshotBin{
		ID:    bin.ID,
		Name:  bin.Name,
		Area:  areaName,
		Items: bin.Items,
		Tags:  bin.Tags,
		Notes: bin.Notes,
		Icon:  bin.Icon,
		Color: bin.Color,
	}
}

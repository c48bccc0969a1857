package ai

import (
	"fmt"
	"strings"
)

// Action is one command against the inventory. It is a tagged union: Type
// selects the variant and only that variant's fields are meaningful. Every
// type except create_bin must reference a bin visible in the snapshot the
// action was validated against.
type Action struct {
	Type     string   `json:"type"`
	BinID    string   `json:"bin_id,omitempty"`
	BinName  string   `json:"bin_name,omitempty"`
	Name     string   `json:"name,omitempty"`
	Items    []string `json:"items,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	OldItem  string   `json:"old_item,omitempty"`
	NewItem  string   `json:"new_item,omitempty"`
	OldTag   string   `json:"old_tag,omitempty"`
	NewTag   string   `json:"new_tag,omitempty"`
	AreaName string   `json:"area_name,omitempty"`
	AreaID   *string  `json:"area_id,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Mode     string   `json:"mode,omitempty"`
	Icon     string   `json:"icon,omitempty"`
	Color    string   `json:"color,omitempty"`
}

const (
	ActionAddItems    = "add_items"
	ActionRemoveItems = "remove_items"
	ActionModifyItem  = "modify_item"
	ActionCreateBin   = "create_bin"
	ActionDeleteBin   = "delete_bin"
	ActionAddTags     = "add_tags"
	ActionRemoveTags  = "remove_tags"
	ActionModifyTag   = "modify_tag"
	ActionSetArea     = "set_area"
	ActionSetNotes    = "set_notes"
	ActionSetIcon     = "set_icon"
	ActionSetColor    = "set_color"
	ActionUpdateBin   = "update_bin"
	ActionRestoreBin  = "restore_bin"
)

// Notes modes for set_notes.
const (
	NotesModeSet    = "set"
	NotesModeAppend = "append"
	NotesModeClear  = "clear"
)

var actionTypes = map[string]bool{
	ActionAddItems:    true,
	ActionRemoveItems: true,
	ActionModifyItem:  true,
	ActionCreateBin:   true,
	ActionDeleteBin:   true,
	ActionAddTags:     true,
	ActionRemoveTags:  true,
	ActionModifyTag:   true,
	ActionSetArea:     true,
	ActionSetNotes:    true,
	ActionSetIcon:     true,
	ActionSetColor:    true,
	ActionUpdateBin:   true,
	ActionRestoreBin:  true,
}

type fieldError struct {
	field string
	msg   string
}

// checkAction validates one action against the shared grammar, normalizing
// string fields in place (trimming, dropping empty list entries). It is the
// single source of truth for both the lenient and the strict validator.
func checkAction(a *Action, knownBinIDs map[string]bool) *fieldError {
	a.Type = strings.TrimSpace(a.Type)
	if a.Type == "" {
		return &fieldError{field: "type", msg: "action type is required"}
	}
	if !actionTypes[a.Type] {
		return &fieldError{field: "type", msg: fmt.Sprintf("unknown action type %q", a.Type)}
	}

	if a.Type != ActionCreateBin {
		a.BinID = strings.TrimSpace(a.BinID)
		if a.BinID == "" {
			return &fieldError{field: "bin_id", msg: "bin_id is required"}
		}
		if !knownBinIDs[a.BinID] {
			return &fieldError{field: "bin_id", msg: fmt.Sprintf("unknown bin %q", a.BinID)}
		}
	}

	switch a.Type {
	case ActionAddItems, ActionRemoveItems:
		a.Items = cleanList(a.Items)
		if len(a.Items) == 0 {
			return &fieldError{field: "items", msg: "items must be a non-empty list of strings"}
		}

	case ActionAddTags, ActionRemoveTags:
		a.Tags = cleanList(a.Tags)
		if len(a.Tags) == 0 {
			return &fieldError{field: "tags", msg: "tags must be a non-empty list of strings"}
		}

	case ActionModifyItem:
		a.OldItem = strings.TrimSpace(a.OldItem)
		a.NewItem = strings.TrimSpace(a.NewItem)
		if a.OldItem == "" {
			return &fieldError{field: "old_item", msg: "old_item is required"}
		}
		if a.NewItem == "" {
			return &fieldError{field: "new_item", msg: "new_item is required"}
		}

	case ActionModifyTag:
		a.OldTag = strings.TrimSpace(a.OldTag)
		a.NewTag = strings.TrimSpace(a.NewTag)
		if a.OldTag == "" {
			return &fieldError{field: "old_tag", msg: "old_tag is required"}
		}
		if a.NewTag == "" {
			return &fieldError{field: "new_tag", msg: "new_tag is required"}
		}

	case ActionCreateBin:
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return &fieldError{field: "name", msg: "name is required"}
		}
		a.Items = cleanList(a.Items)
		a.Tags = cleanList(a.Tags)
		a.AreaName = strings.TrimSpace(a.AreaName)

	case ActionSetArea:
		// A null area_id signals "create the area"; the name is what matters.
		a.AreaName = strings.TrimSpace(a.AreaName)
		if a.AreaName == "" {
			return &fieldError{field: "area_name", msg: "area_name is required"}
		}

	case ActionSetNotes:
		a.Mode = strings.TrimSpace(a.Mode)
		switch a.Mode {
		case NotesModeSet, NotesModeAppend, NotesModeClear:
		default:
			return &fieldError{field: "mode", msg: `mode must be one of "set", "append", "clear"`}
		}

	case ActionSetIcon:
		a.Icon = strings.TrimSpace(a.Icon)
		if a.Icon == "" {
			return &fieldError{field: "icon", msg: "icon is required"}
		}

	case ActionSetColor:
		a.Color = strings.TrimSpace(a.Color)
		if a.Color == "" {
			return &fieldError{field: "color", msg: "color is required"}
		}

	case ActionUpdateBin:
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			return &fieldError{field: "name", msg: "name is required"}
		}

	case ActionDeleteBin, ActionRestoreBin:
		// bin_id is the only requirement, checked above.
	}

	return nil
}

// cleanList trims every entry and drops the ones that end up empty.
func cleanList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

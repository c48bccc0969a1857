package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"binventory/internal/ai"
	"binventory/internal/domain"
)

// binRepository is the subset of store.BinStore that the services require.
type binRepository interface {
	Create(ctx context.Context, bin *domain.Bin) (*domain.Bin, error)
	GetByID(ctx context.Context, id string) (*domain.Bin, error)
	ListByLocation(ctx context.Context, locationID string) ([]*domain.Bin, error)
	ListTrash(ctx context.Context, locationID string) ([]*domain.Bin, error)
	Update(ctx context.Context, bin *domain.Bin) error
	Trash(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// areaRepository is the subset of store.AreaStore that the services require.
type areaRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Area, error)
	EnsureByName(ctx context.Context, locationID, name string) (*domain.Area, error)
	ListByLocation(ctx context.Context, locationID string) ([]*domain.Area, error)
}

// activityRepository is the subset of store.ActivityStore that the services
// require.
type activityRepository interface {
	Log(ctx context.Context, entry *domain.ActivityEntry) error
}

// ActionResult is the per-action outcome reported back to the caller.
type ActionResult struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Details string `json:"details,omitempty"`
	BinID   string `json:"bin_id,omitempty"`
	BinName string `json:"bin_name,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary is the full per-item report for one batch.
type Summary struct {
	Results []ActionResult `json:"results"`
	Errors  []string       `json:"errors"`
}

// Actor identifies who is executing a batch, for the activity log.
type Actor struct {
	UserID     string
	UserName   string
	AuthMethod string
}

type BatchService struct {
	bins     binRepository
	areas    areaRepository
	activity activityRepository
	logger   *slog.Logger
}

func NewBatchService(bins binRepository, areas areaRepository, activity activityRepository, logger *slog.Logger) *BatchService {
	return &BatchService{
		bins:     bins,
		areas:    areas,
		activity: activity,
		logger:   logger,
	}
}

// KnownBinIDs returns the IDs an action may reference: every active and
// trashed bin of the location.
func (s *BatchService) KnownBinIDs(ctx context.Context, locationID string) (map[string]bool, error) {
	bins, err := s.bins.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	trash, err := s.bins.ListTrash(ctx, locationID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(bins)+len(trash))
	for _, bin := range bins {
		known[bin.ID] = true
	}
	for _, bin := range trash {
		known[bin.ID] = true
	}
	return known, nil
}

// Execute applies validated actions strictly in order, one at a time. Later
// actions may depend on the effects of earlier ones, so the sequence is
// never parallelized or reordered. A single action's failure is recorded in
// its result and execution continues: the batch is a best-effort sequence
// with a full per-item report, not a transaction.
func (s *BatchService) Execute(ctx context.Context, locationID string, actions []ai.Action, actor Actor) (*Summary, error) {
	if len(actions) > ai.MaxBatchSize {
		return nil, &ai.ValidationError{Index: -1, Message: fmt.Sprintf("too many operations: %d exceeds the limit of %d", len(actions), ai.MaxBatchSize)}
	}

	summary := &Summary{
		Results: make([]ActionResult, 0, len(actions)),
		Errors:  []string{},
	}

	for _, action := range actions {
		result := s.apply(ctx, locationID, action, actor)
		summary.Results = append(summary.Results, result)
		if !result.Success {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", action.Type, result.Error))
			s.logger.Warn("action failed", "type", action.Type, "bin_id", action.BinID, "error", result.Error)
		}
	}

	s.logger.Info("batch executed",
		"location_id", locationID,
		"actions", len(actions),
		"failed", len(summary.Errors),
	)

	return summary, nil
}

func (s *BatchService) apply(ctx context.Context, locationID string, action ai.Action, actor Actor) ActionResult {
	switch action.Type {
	case ai.ActionCreateBin:
		return s.applyCreateBin(ctx, locationID, action, actor)
	case ai.ActionRestoreBin:
		return s.applyRestoreBin(ctx, locationID, action, actor)
	}

	// Everything else mutates an existing, active bin.
	bin, err := s.loadActiveBin(ctx, action.BinID)
	if err != nil {
		return failure(action, err)
	}

	switch action.Type {
	case ai.ActionAddItems:
		return s.applyAddItems(ctx, locationID, action, actor, bin)
	case ai.ActionRemoveItems:
		return s.applyRemoveItems(ctx, locationID, action, actor, bin)
	case ai.ActionModifyItem:
		return s.applyModifyItem(ctx, locationID, action, actor, bin)
	case ai.ActionDeleteBin:
		return s.applyDeleteBin(ctx, locationID, action, actor, bin)
	case ai.ActionAddTags:
		return s.applyAddTags(ctx, locationID, action, actor, bin)
	case ai.ActionRemoveTags:
		return s.applyRemoveTags(ctx, locationID, action, actor, bin)
	case ai.ActionModifyTag:
		return s.applyModifyTag(ctx, locationID, action, actor, bin)
	case ai.ActionSetArea:
		return s.applySetArea(ctx, locationID, action, actor, bin)
	case ai.ActionSetNotes:
		return s.applySetNotes(ctx, locationID, action, actor, bin)
	case ai.ActionSetIcon:
		return s.applySetIcon(ctx, locationID, action, actor, bin)
	case ai.ActionSetColor:
		return s.applySetColor(ctx, locationID, action, actor, bin)
	case ai.ActionUpdateBin:
		return s.applyUpdateBin(ctx, locationID, action, actor, bin)
	default:
		return failure(action, fmt.Errorf("unknown action type %q", action.Type))
	}
}

// loadActiveBin fetches the bin and rejects trashed or missing ones. A bin
// validated against the snapshot can still be gone here: another request
// may have deleted it between validation and execution.
func (s *BatchService) loadActiveBin(ctx context.Context, id string) (*domain.Bin, error) {
	bin, err := s.bins.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bin == nil {
		return nil, fmt.Errorf("bin not found")
	}
	if bin.Trashed() {
		return nil, fmt.Errorf("bin is in the trash")
	}
	return bin, nil
}

func (s *BatchService) applyAddItems(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	bin.Items = append(bin.Items, action.Items...)
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"items_added": {Old: nil, New: action.Items},
	})
	return success(action, bin, fmt.Sprintf("Added %d item(s) to %s", len(action.Items), bin.Name))
}

func (s *BatchService) applyRemoveItems(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	remaining, removed := removeMatching(bin.Items, action.Items)
	if len(removed) == 0 {
		return failure(action, fmt.Errorf("no matching items in %s", bin.Name))
	}

	bin.Items = remaining
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"items_removed": {Old: removed, New: nil},
	})
	return success(action, bin, fmt.Sprintf("Removed %d item(s) from %s", len(removed), bin.Name))
}

func (s *BatchService) applyModifyItem(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	idx := indexOfFold(bin.Items, action.OldItem)
	if idx < 0 {
		return failure(action, fmt.Errorf("item %q not found in %s", action.OldItem, bin.Name))
	}

	old := bin.Items[idx]
	bin.Items[idx] = action.NewItem
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"item": {Old: old, New: action.NewItem},
	})
	return success(action, bin, fmt.Sprintf("Renamed %q to %q in %s", old, action.NewItem, bin.Name))
}

func (s *BatchService) applyCreateBin(ctx context.Context, locationID string, action ai.Action, actor Actor) ActionResult {
	bin := &domain.Bin{
		LocationID: locationID,
		Name:       action.Name,
		Items:      action.Items,
		Tags:       action.Tags,
		Notes:      action.Notes,
		Icon:       action.Icon,
		Color:      action.Color,
	}

	if action.AreaName != "" {
		area, err := s.areas.EnsureByName(ctx, locationID, action.AreaName)
		if err != nil {
			return failure(action, err)
		}
		bin.AreaID = &area.ID
	}

	created, err := s.bins.Create(ctx, bin)
	if err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "create", created, map[string]domain.FieldChange{
		"name": {Old: nil, New: created.Name},
	})
	return success(action, created, fmt.Sprintf("Created bin %s", created.Name))
}

func (s *BatchService) applyDeleteBin(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	if err := s.bins.Trash(ctx, bin.ID); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "delete", bin, map[string]domain.FieldChange{
		"deleted": {Old: false, New: true},
	})
	return success(action, bin, fmt.Sprintf("Moved %s to the trash", bin.Name))
}

func (s *BatchService) applyRestoreBin(ctx context.Context, locationID string, action ai.Action, actor Actor) ActionResult {
	bin, err := s.bins.GetByID(ctx, action.BinID)
	if err != nil {
		return failure(action, err)
	}
	if bin == nil {
		return failure(action, fmt.Errorf("bin not found"))
	}
	if !bin.Trashed() {
		return failure(action, fmt.Errorf("bin is not in the trash"))
	}

	if err := s.bins.Restore(ctx, bin.ID); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "restore", bin, map[string]domain.FieldChange{
		"deleted": {Old: true, New: false},
	})
	return success(action, bin, fmt.Sprintf("Restored %s from the trash", bin.Name))
}

func (s *BatchService) applyAddTags(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	bin.Tags = append(bin.Tags, action.Tags...)
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"tags_added": {Old: nil, New: action.Tags},
	})
	return success(action, bin, fmt.Sprintf("Added %d tag(s) to %s", len(action.Tags), bin.Name))
}

func (s *BatchService) applyRemoveTags(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	remaining, removed := removeMatching(bin.Tags, action.Tags)
	if len(removed) == 0 {
		return failure(action, fmt.Errorf("no matching tags on %s", bin.Name))
	}

	bin.Tags = remaining
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"tags_removed": {Old: removed, New: nil},
	})
	return success(action, bin, fmt.Sprintf("Removed %d tag(s) from %s", len(removed), bin.Name))
}

func (s *BatchService) applyModifyTag(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	idx := indexOfFold(bin.Tags, action.OldTag)
	if idx < 0 {
		return failure(action, fmt.Errorf("tag %q not found on %s", action.OldTag, bin.Name))
	}

	old := bin.Tags[idx]
	bin.Tags[idx] = action.NewTag
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"tag": {Old: old, New: action.NewTag},
	})
	return success(action, bin, fmt.Sprintf("Renamed tag %q to %q on %s", old, action.NewTag, bin.Name))
}

func (s *BatchService) applySetArea(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	var oldName any
	if bin.AreaID != nil {
		area, err := s.areas.GetByID(ctx, *bin.AreaID)
		if err != nil {
			return failure(action, err)
		}
		if area != nil {
			oldName = area.Name
		}
	}

	area, err := s.areas.EnsureByName(ctx, locationID, action.AreaName)
	if err != nil {
		return failure(action, err)
	}

	bin.AreaID = &area.ID
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"area": {Old: oldName, New: area.Name},
	})
	return success(action, bin, fmt.Sprintf("Moved %s to area %s", bin.Name, area.Name))
}

func (s *BatchService) applySetNotes(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	old := bin.Notes
	switch action.Mode {
	case ai.NotesModeSet:
		bin.Notes = action.Notes
	case ai.NotesModeAppend:
		if bin.Notes == "" {
			bin.Notes = action.Notes
		} else {
			bin.Notes = bin.Notes + "\n" + action.Notes
		}
	case ai.NotesModeClear:
		bin.Notes = ""
	}

	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"notes": {Old: old, New: bin.Notes},
	})
	return success(action, bin, fmt.Sprintf("Updated notes on %s", bin.Name))
}

func (s *BatchService) applySetIcon(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	old := bin.Icon
	bin.Icon = action.Icon
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"icon": {Old: old, New: bin.Icon},
	})
	return success(action, bin, fmt.Sprintf("Set icon on %s", bin.Name))
}

func (s *BatchService) applySetColor(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	old := bin.Color
	bin.Color = action.Color
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"color": {Old: old, New: bin.Color},
	})
	return success(action, bin, fmt.Sprintf("Set color on %s", bin.Name))
}

func (s *BatchService) applyUpdateBin(ctx context.Context, locationID string, action ai.Action, actor Actor, bin *domain.Bin) ActionResult {
	old := bin.Name
	bin.Name = action.Name
	if err := s.bins.Update(ctx, bin); err != nil {
		return failure(action, err)
	}

	s.logActivity(ctx, locationID, actor, "update", bin, map[string]domain.FieldChange{
		"name": {Old: old, New: bin.Name},
	})
	return success(action, bin, fmt.Sprintf("Renamed bin %q to %q", old, bin.Name))
}

// logActivity is fire-and-forget: a logging failure must never fail the
// action whose mutation already succeeded.
func (s *BatchService) logActivity(ctx context.Context, locationID string, actor Actor, verb string, bin *domain.Bin, changes map[string]domain.FieldChange) {
	entry := &domain.ActivityEntry{
		LocationID: locationID,
		UserID:     actor.UserID,
		UserName:   actor.UserName,
		Action:     verb,
		EntityType: "bin",
		EntityID:   bin.ID,
		EntityName: bin.Name,
		Changes:    changes,
		AuthMethod: actor.AuthMethod,
	}
	if err := s.activity.Log(ctx, entry); err != nil {
		s.logger.Error("failed to record activity", "bin_id", bin.ID, "error", err)
	}
}

func success(action ai.Action, bin *domain.Bin, details string) ActionResult {
	return ActionResult{
		Type:    action.Type,
		Success: true,
		Details: details,
		BinID:   bin.ID,
		BinName: bin.Name,
	}
}

func failure(action ai.Action, err error) ActionResult {
	return ActionResult{
		Type:    action.Type,
		Success: false,
		BinID:   action.BinID,
		Error:   err.Error(),
	}
}

// removeMatching removes the first case-insensitive match for each wanted
// entry, returning the remaining list and the removed entries in their
// stored spelling.
func removeMatching(list, wanted []string) (remaining, removed []string) {
	remaining = append([]string{}, list...)
	for _, want := range wanted {
		if idx := indexOfFold(remaining, want); idx >= 0 {
			removed = append(removed, remaining[idx])
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}
	}
	return remaining, removed
}

func indexOfFold(list []string, want string) int {
	for i, item := range list {
		if strings.EqualFold(item, want) {
			return i
		}
	}
	return -1
}

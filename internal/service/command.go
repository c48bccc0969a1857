package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"binventory/internal/ai"
	"binventory/internal/ai/provider"
	"binventory/internal/domain"
)

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrAINotConfigured  = errors.New("ai is not configured for this location")
)

const (
	commandTemperature = 0.2
	commandMaxTokens   = 2048
	commandTimeout     = 60 * time.Second
)

// locationRepository is the subset of store.LocationStore that
// CommandService requires.
type locationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Location, error)
}

// CommandService turns free-form natural language into validated actions by
// way of the provider client. It never executes anything: the caller feeds
// the returned actions to BatchService.
type CommandService struct {
	locations locationRepository
	bins      binRepository
	areas     areaRepository
	client    provider.Completer
	logger    *slog.Logger
}

func NewCommandService(locations locationRepository, bins binRepository, areas areaRepository, client provider.Completer, logger *slog.Logger) *CommandService {
	return &CommandService{
		locations: locations,
		bins:      bins,
		areas:     areas,
		client:    client,
		logger:    logger,
	}
}

// ParseCommand sends the command text plus an inventory snapshot to the
// location's configured provider and validates the answer leniently.
// override, when non-nil, replaces the server-built snapshot; stateless
// clients use it to supply their own context.
func (s *CommandService) ParseCommand(ctx context.Context, locationID, text string, override *ai.Snapshot) (ai.Parsed, error) {
	cfg, err := s.providerConfig(ctx, locationID)
	if err != nil {
		return ai.Parsed{}, err
	}

	snap := override
	if snap == nil {
		snap, err = s.BuildSnapshot(ctx, locationID)
		if err != nil {
			return ai.Parsed{}, err
		}
	}

	user, err := ai.UserMessage(text, snap)
	if err != nil {
		return ai.Parsed{}, err
	}

	known := snap.KnownBinIDs()
	opts := provider.Options{
		Temperature: commandTemperature,
		MaxTokens:   commandMaxTokens,
		Timeout:     commandTimeout,
	}

	parsed, err := provider.Call(ctx, s.client, cfg, ai.SystemPrompt(), user, opts,
		func(raw json.RawMessage) (ai.Parsed, error) {
			return ai.ParseLenient(raw, known)
		})
	if err != nil {
		return ai.Parsed{}, err
	}

	s.logger.Info("command parsed",
		"location_id", locationID,
		"actions", len(parsed.Actions),
		"dropped", parsed.Dropped,
	)

	return parsed, nil
}

// TestProvider verifies the location's AI settings with a minimal call.
func (s *CommandService) TestProvider(ctx context.Context, locationID string) error {
	cfg, err := s.providerConfig(ctx, locationID)
	if err != nil {
		return err
	}
	return s.client.TestConnection(ctx, cfg)
}

func (s *CommandService) providerConfig(ctx context.Context, locationID string) (provider.Config, error) {
	loc, err := s.locations.GetByID(ctx, locationID)
	if err != nil {
		return provider.Config{}, err
	}
	if loc == nil {
		return provider.Config{}, ErrLocationNotFound
	}
	if loc.AIProvider == "" || loc.AIAPIKey == "" {
		return provider.Config{}, ErrAINotConfigured
	}

	return provider.Config{
		Provider:    provider.Kind(loc.AIProvider),
		APIKey:      loc.AIAPIKey,
		Model:       loc.AIModel,
		EndpointURL: loc.AIEndpointURL,
	}, nil
}

// BuildSnapshot projects the location's bins, areas and trash into the
// read-only form the prompt and validator work on.
func (s *CommandService) BuildSnapshot(ctx context.Context, locationID string) (*ai.Snapshot, error) {
	bins, err := s.bins.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	trash, err := s.bins.ListTrash(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}
	areas, err := s.areas.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}

	areaNames := make(map[string]string, len(areas))
	names := make([]string, 0, len(areas))
	for _, area := range areas {
		areaNames[area.ID] = area.Name
		names = append(names, area.Name)
	}

	snap := &ai.Snapshot{
		Bins:            make([]ai.SnapshotBin, 0, len(bins)),
		Areas:           names,
		Trash:           make([]ai.SnapshotBin, 0, len(trash)),
		AvailableColors: ai.DefaultColors,
		AvailableIcons:  ai.DefaultIcons,
	}
	for _, bin := range bins {
		snap.Bins = append(snap.Bins, ai.SnapshotFromBin(bin, binAreaName(bin, areaNames)))
	}
	for _, bin := range trash {
		snap.Trash = append(snap.Trash, ai.SnapshotFromBin(bin, binAreaName(bin, areaNames)))
	}

	return snap, nil
}

func binAreaName(bin *domain.Bin, areaNames map[string]string) string {
	if bin.AreaID == nil {
		return ""
	}
	return areaNames[*bin.AreaID]
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"binventory/internal/domain"
)

// defaultRetentionDays is how long activity entries are kept when a
// location has no explicit setting.
const defaultRetentionDays = 90

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

func (s *LocationStore) Create(ctx context.Context, name string) (*domain.Location, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO locations (id, name, activity_retention_days) VALUES (?, ?, ?)
	`, id, name, defaultRetentionDays)
	if err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *LocationStore) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	loc := &domain.Location{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, activity_retention_days, ai_provider, ai_api_key, ai_model, ai_endpoint_url, created_at
		FROM locations WHERE id = ?
	`, id).Scan(&loc.ID, &loc.Name, &loc.ActivityRetentionDays,
		&loc.AIProvider, &loc.AIAPIKey, &loc.AIModel, &loc.AIEndpointURL, &loc.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return loc, nil
}

func (s *LocationStore) List(ctx context.Context) ([]*domain.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, activity_retention_days, ai_provider, ai_api_key, ai_model, ai_endpoint_url, created_at
		FROM locations ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var locations []*domain.Location
	for rows.Next() {
		loc := &domain.Location{}
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.ActivityRetentionDays,
			&loc.AIProvider, &loc.AIAPIKey, &loc.AIModel, &loc.AIEndpointURL, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locations: %w", err)
	}

	return locations, nil
}

// UpdateSettings replaces the location's retention and AI provider settings.
func (s *LocationStore) UpdateSettings(ctx context.Context, id string, retentionDays int, provider, apiKey, model, endpointURL string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE locations
		SET activity_retention_days = ?, ai_provider = ?, ai_api_key = ?, ai_model = ?, ai_endpoint_url = ?
		WHERE id = ?
	`, retentionDays, provider, apiKey, model, endpointURL, id)
	if err != nil {
		return fmt.Errorf("failed to update location settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("location not found")
	}

	return nil
}

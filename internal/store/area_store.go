package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"binventory/internal/domain"
)

type AreaStore struct {
	db *sql.DB
}

func NewAreaStore(db *sql.DB) *AreaStore {
	return &AreaStore{db: db}
}

func (s *AreaStore) GetByID(ctx context.Context, id string) (*domain.Area, error) {
	area := &domain.Area{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, name, created_at FROM areas WHERE id = ?
	`, id).Scan(&area.ID, &area.LocationID, &area.Name, &area.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area: %w", err)
	}

	return area, nil
}

func (s *AreaStore) GetByName(ctx context.Context, locationID, name string) (*domain.Area, error) {
	area := &domain.Area{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, location_id, name, created_at FROM areas WHERE location_id = ? AND name = ?
	`, locationID, name).Scan(&area.ID, &area.LocationID, &area.Name, &area.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area by name: %w", err)
	}

	return area, nil
}

// EnsureByName returns the area with the given name, creating it if it does
// not exist. INSERT OR IGNORE + re-select avoids a TOCTOU race between
// concurrent batches creating the same area.
func (s *AreaStore) EnsureByName(ctx context.Context, locationID, name string) (*domain.Area, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO areas (id, location_id, name) VALUES (?, ?, ?)
	`, uuid.NewString(), locationID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create area: %w", err)
	}

	area, err := s.GetByName(ctx, locationID, name)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, fmt.Errorf("area %q missing after insert", name)
	}

	return area, nil
}

func (s *AreaStore) ListByLocation(ctx context.Context, locationID string) ([]*domain.Area, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, location_id, name, created_at FROM areas WHERE location_id = ? ORDER BY name ASC
	`, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var areas []*domain.Area
	for rows.Next() {
		area := &domain.Area{}
		if err := rows.Scan(&area.ID, &area.LocationID, &area.Name, &area.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, area)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating areas: %w", err)
	}

	return areas, nil
}

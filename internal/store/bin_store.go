package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"binventory/internal/domain"
)

type BinStore struct {
	db *sql.DB
}

func NewBinStore(db *sql.DB) *BinStore {
	return &BinStore{db: db}
}

const binColumns = `id, location_id, area_id, name, items, tags, notes, icon, color, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBin(row rowScanner) (*domain.Bin, error) {
	bin := &domain.Bin{}
	var items, tags string
	err := row.Scan(&bin.ID, &bin.LocationID, &bin.AreaID, &bin.Name, &items, &tags,
		&bin.Notes, &bin.Icon, &bin.Color, &bin.CreatedAt, &bin.UpdatedAt, &bin.DeletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(items), &bin.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items for bin %s: %w", bin.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &bin.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for bin %s: %w", bin.ID, err)
	}

	return bin, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *BinStore) Create(ctx context.Context, bin *domain.Bin) (*domain.Bin, error) {
	if bin.ID == "" {
		bin.ID = uuid.NewString()
	}

	items, err := encodeList(bin.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}
	tags, err := encodeList(bin.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bins (id, location_id, area_id, name, items, tags, notes, icon, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, bin.ID, bin.LocationID, bin.AreaID, bin.Name, items, tags, bin.Notes, bin.Icon, bin.Color)
	if err != nil {
		return nil, fmt.Errorf("failed to create bin: %w", err)
	}

	return s.GetByID(ctx, bin.ID)
}

// GetByID returns the bin whether it is active or trashed.
func (s *BinStore) GetByID(ctx context.Context, id string) (*domain.Bin, error) {
	bin, err := scanBin(s.db.QueryRowContext(ctx,
		`SELECT `+binColumns+` FROM bins WHERE id = ?`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bin: %w", err)
	}

	return bin, nil
}

func (s *BinStore) ListByLocation(ctx context.Context, locationID string) ([]*domain.Bin, error) {
	return s.list(ctx, `
		SELECT `+binColumns+` FROM bins
		WHERE location_id = ? AND deleted_at IS NULL ORDER BY name ASC
	`, locationID)
}

// ListTrash returns the location's soft-deleted bins.
func (s *BinStore) ListTrash(ctx context.Context, locationID string) ([]*domain.Bin, error) {
	return s.list(ctx, `
		SELECT `+binColumns+` FROM bins
		WHERE location_id = ? AND deleted_at IS NOT NULL ORDER BY deleted_at DESC
	`, locationID)
}

func (s *BinStore) list(ctx context.Context, query string, args ...any) ([]*domain.Bin, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var bins []*domain.Bin
	for rows.Next() {
		bin, err := scanBin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bin: %w", err)
		}
		bins = append(bins, bin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bins: %w", err)
	}

	return bins, nil
}

// Update saves the bin's mutable fields as a full row write.
func (s *BinStore) Update(ctx context.Context, bin *domain.Bin) error {
	items, err := encodeList(bin.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	tags, err := encodeList(bin.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE bins
		SET area_id = ?, name = ?, items = ?, tags = ?, notes = ?, icon = ?, color = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, bin.AreaID, bin.Name, items, tags, bin.Notes, bin.Icon, bin.Color, bin.ID)
	if err != nil {
		return fmt.Errorf("failed to update bin: %w", err)
	}

	return requireRow(result, "bin")
}

// Trash soft-deletes an active bin.
func (s *BinStore) Trash(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bins SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL
	`, id)
	if err != nil {
		return fmt.Errorf("failed to trash bin: %w", err)
	}

	return requireRow(result, "bin")
}

// Restore brings a trashed bin back.
func (s *BinStore) Restore(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE bins SET deleted_at = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NOT NULL
	`, id)
	if err != nil {
		return fmt.Errorf("failed to restore bin: %w", err)
	}

	return requireRow(result, "bin")
}

func requireRow(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s not found", entity)
	}
	return nil
}

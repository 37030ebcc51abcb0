package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raine/listing-content/internal/listing"
)

// Generation is a stored listing generation.
type Generation struct {
	ID              string
	ProviderID      string
	ModelIdentifier string
	ImageCount      int
	ParseFailed     bool
	Confidence      float64
	Title           string
	Content         listing.ListingContent
	CreatedAt       time.Time
}

// RecordGeneration stores a generated listing.
func (s *SQLiteStore) RecordGeneration(ctx context.Context, req listing.GenerationRequest, content *listing.ListingContent) error {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generations (id, provider_id, model_identifier, image_count, parse_failed, confidence, title, content_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), content.ProviderID, req.ModelIdentifier, len(req.Images),
		content.ParseFailed, content.Confidence, content.Title, string(contentJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}

	return nil
}

// ListParseFailed returns degraded generations awaiting review, newest first.
// A limit of zero or less returns all of them.
func (s *SQLiteStore) ListParseFailed(ctx context.Context, limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider_id, model_identifier, image_count, parse_failed, confidence, title, content_json, created_at
		FROM generations
		WHERE parse_failed = 1
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var generations []Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		generations = append(generations, *g)
	}

	return generations, rows.Err()
}

// GetGeneration retrieves a generation by ID.
// Returns nil, nil if it doesn't exist.
func (s *SQLiteStore) GetGeneration(ctx context.Context, id string) (*Generation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider_id, model_identifier, image_count, parse_failed, confidence, title, content_json, created_at
		FROM generations
		WHERE id = ?
	`, id)

	g, err := scanGeneration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

// DeleteGeneration removes a generation, e.g. once it has been reviewed.
// Returns false if no generation had the given ID.
func (s *SQLiteStore) DeleteGeneration(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM generations WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete generation: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row scanner) (*Generation, error) {
	var g Generation
	var contentJSON string
	err := row.Scan(&g.ID, &g.ProviderID, &g.ModelIdentifier, &g.ImageCount, &g.ParseFailed,
		&g.Confidence, &g.Title, &contentJSON, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan generation: %w", err)
	}
	if err := json.Unmarshal([]byte(contentJSON), &g.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal listing %s: %w", g.ID, err)
	}
	return &g, nil
}

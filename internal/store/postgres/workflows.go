package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vk/latentflow/internal/store"
)

// Save upserts the record by id, refreshing updated_at on conflict.
func (s *Store) Save(ctx context.Context, rec *store.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO workflows (id, name, folder, tags, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    folder = EXCLUDED.folder,
		    tags = EXCLUDED.tags,
		    document = EXCLUDED.document,
		    updated_at = NOW()`,
		rec.ID, rec.Name, rec.Folder, rec.Tags, rec.Document,
	)
	if err != nil {
		return fmt.Errorf("store: save workflow: %w", err)
	}
	return nil
}

// Get fetches one record including its document.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*store.Record, error) {
	var rec store.Record
	err := s.db.QueryRow(ctx, `
		SELECT id, name, folder, tags, document, created_at, updated_at
		FROM workflows WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Folder, &rec.Tags, &rec.Document, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("store: get workflow: %w", err)
	}
	return &rec, nil
}

// List returns record metadata, newest first. The document column is
// skipped; callers Get the one they open.
func (s *Store) List(ctx context.Context, folder string) ([]store.Record, error) {
	query := `
		SELECT id, name, folder, tags, created_at, updated_at
		FROM workflows ORDER BY updated_at DESC`
	args := []any{}
	if folder != "" {
		query = `
			SELECT id, name, folder, tags, created_at, updated_at
			FROM workflows WHERE folder = $1 ORDER BY updated_at DESC`
		args = append(args, folder)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list workflows: %w", err)
	}
	defer rows.Close()

	recs := []store.Record{}
	for rows.Next() {
		var rec store.Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Folder, &rec.Tags, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan workflow row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list workflows: %w", err)
	}
	return recs, nil
}

// Delete removes a record by id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete workflow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrWorkflowNotFound
	}
	return nil
}

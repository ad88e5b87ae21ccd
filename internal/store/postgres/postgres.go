// Package postgres implements store.Store on PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists workflow records in PostgreSQL.
type Store struct {
	db *pgxpool.Pool
}

// New creates a Store backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workflows (
    id         UUID PRIMARY KEY,
    name       TEXT NOT NULL,
    folder     TEXT NOT NULL DEFAULT '',
    tags       TEXT[] NOT NULL DEFAULT '{}',
    document   JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_workflows_folder ON workflows(folder);
`

// CreateSchema creates the workflows table if it does not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the workflows table.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS workflows CASCADE;`)
	return err
}

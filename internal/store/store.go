// Package store defines the persistence contract for workflow documents.
// The graph core never touches storage itself; the editor saves and loads
// serialized documents through this interface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrWorkflowNotFound is returned by Get and Delete for an unknown id.
var ErrWorkflowNotFound = errors.New("store: workflow not found")

// Record is one persisted workflow: metadata plus the serialized document
// produced by workflow.EncodeDocument.
type Record struct {
	ID        uuid.UUID
	Name      string
	Folder    string
	Tags      []string
	Document  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists workflow records.
type Store interface {
	// Save inserts or updates the record by ID.
	Save(ctx context.Context, rec *Record) error

	// Get fetches one record. ErrWorkflowNotFound if absent.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// List returns metadata for every record in the folder, newest
	// first. Empty folder means everything. Documents are not loaded.
	List(ctx context.Context, folder string) ([]Record, error)

	// Delete removes a record. ErrWorkflowNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}

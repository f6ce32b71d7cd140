package publish

import (
	"context"

	"github.com/google/uuid"
)

// ContentStore is the persistence backend files are published to.
type ContentStore interface {
	// Lookup returns the current content-address of the target. It returns an
	// error wrapping ErrFileNotFound when the file does not exist.
	Lookup(ctx context.Context, target Target) (string, error)

	// Write creates the target when req.Address is empty and updates it otherwise.
	Write(ctx context.Context, target Target, req WriteRequest) (*WriteResult, error)
}

// HistoryStore persists publish records
type HistoryStore interface {
	SaveRecord(ctx context.Context, record *Record) error
	GetRecord(ctx context.Context, id uuid.UUID) (*Record, error)
	ListRecords(ctx context.Context, limit int) ([]*Record, error)
}

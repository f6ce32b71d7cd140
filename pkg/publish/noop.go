package publish

import (
	"context"

	"github.com/google/uuid"
)

// NoopHistoryStore discards publish records.
// Useful when publish history is not needed
type NoopHistoryStore struct{}

// NewNoopHistoryStore creates a new no-operation history store
func NewNoopHistoryStore() HistoryStore {
	return &NoopHistoryStore{}
}

// SaveRecord does nothing and returns nil
func (n *NoopHistoryStore) SaveRecord(ctx context.Context, record *Record) error {
	return nil
}

// GetRecord always returns ErrRecordNotFound
func (n *NoopHistoryStore) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	return nil, ErrRecordNotFound
}

// ListRecords returns no records
func (n *NoopHistoryStore) ListRecords(ctx context.Context, limit int) ([]*Record, error) {
	return nil, nil
}

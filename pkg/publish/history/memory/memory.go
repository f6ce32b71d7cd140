package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/publish"
)

// Repository implements publish.HistoryStore using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*publish.Record
	order   []uuid.UUID
}

// New creates a new in-memory history store
func New() publish.HistoryStore {
	return &Repository{
		records: make(map[uuid.UUID]*publish.Record),
	}
}

func (r *Repository) SaveRecord(ctx context.Context, record *publish.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; !exists {
		r.order = append(r.order, record.ID)
	}
	r.records[record.ID] = cloneRecord(record)
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*publish.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, publish.ErrRecordNotFound
	}
	return cloneRecord(record), nil
}

// ListRecords returns the most recent records first
func (r *Repository) ListRecords(ctx context.Context, limit int) ([]*publish.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*publish.Record
	for i := len(r.order) - 1; i >= 0; i-- {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, cloneRecord(r.records[r.order[i]]))
	}
	return result, nil
}

// Create a copy to avoid external modifications
func cloneRecord(record *publish.Record) *publish.Record {
	c := *record
	c.Files = append([]publish.FileOutcome(nil), record.Files...)
	return &c
}

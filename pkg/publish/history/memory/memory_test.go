package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/publish"
)

func newRecord(status publish.RecordStatus) *publish.Record {
	now := time.Now().UTC()
	return &publish.Record{
		ID:     uuid.New(),
		Branch: "main",
		Status: status,
		Files: []publish.FileOutcome{
			{Path: "public/data/blog-posts.json", Status: publish.FileWritten, Address: "abc"},
		},
		StartedAt:  now,
		FinishedAt: now,
	}
}

func TestRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := New()

	record := newRecord(publish.RecordSucceeded)
	require.NoError(t, repo.SaveRecord(ctx, record))

	got, err := repo.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)

	// Stored records are copies.
	record.Files[0].Status = publish.FileFailed
	got, err = repo.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, publish.FileWritten, got.Files[0].Status)

	_, err = repo.GetRecord(ctx, uuid.New())
	assert.ErrorIs(t, err, publish.ErrRecordNotFound)
}

func TestRepository_ListRecords(t *testing.T) {
	ctx := context.Background()
	repo := New()

	first := newRecord(publish.RecordSucceeded)
	second := newRecord(publish.RecordFailed)
	third := newRecord(publish.RecordSucceeded)
	for _, r := range []*publish.Record{first, second, third} {
		require.NoError(t, repo.SaveRecord(ctx, r))
	}
	// Re-saving keeps the first position.
	require.NoError(t, repo.SaveRecord(ctx, first))

	all, err := repo.ListRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
	assert.Equal(t, first.ID, all[2].ID)

	limited, err := repo.ListRecords(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

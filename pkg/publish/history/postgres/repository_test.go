package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-publish/pkg/publish"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewWithPool(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	return repo
}

func TestRepository_SaveGetList(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Microsecond)
	record := &publish.Record{
		ID:     uuid.New(),
		Branch: "main",
		Status: publish.RecordFailed,
		Files: []publish.FileOutcome{
			{Path: "public/data/blog-posts.json", Status: publish.FileWritten, Address: "abc"},
			{Path: "img/a.png", Status: publish.FileFailed, Error: "PUT img/a.png 500: boom"},
			{Path: "img/b.png", Status: publish.FileSkipped},
		},
		Error:      "PUT img/a.png 500: boom",
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}

	require.NoError(t, repo.SaveRecord(ctx, record))
	// saving twice updates in place
	require.NoError(t, repo.SaveRecord(ctx, record))

	got, err := repo.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Status, got.Status)
	assert.Equal(t, record.Files, got.Files)
	assert.Equal(t, record.Error, got.Error)
	assert.True(t, record.StartedAt.Equal(got.StartedAt))

	records, err := repo.ListRecords(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, records)

	_, err = repo.GetRecord(ctx, uuid.New())
	assert.ErrorIs(t, err, publish.ErrRecordNotFound)
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-publish/pkg/publish"
)

// Schema creates the publish history table
const Schema = `
CREATE TABLE IF NOT EXISTS publish_record (
    id          UUID PRIMARY KEY,
    branch      TEXT NOT NULL,
    status      TEXT NOT NULL,
    files       JSONB NOT NULL DEFAULT '[]'::jsonb,
    error       TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS publish_record_started_at_idx ON publish_record (started_at DESC);`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements publish.HistoryStore using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL history store
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL history store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// EnsureSchema creates the history table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return r.handlePostgresError("ensure schema", err)
	}
	return nil
}

func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) SaveRecord(ctx context.Context, record *publish.Record) error {
	files, err := json.Marshal(record.Files)
	if err != nil {
		return fmt.Errorf("failed to encode files: %w", err)
	}

	query := `
		INSERT INTO publish_record (id, branch, status, files, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status, files = EXCLUDED.files,
			error = EXCLUDED.error, finished_at = EXCLUDED.finished_at`

	_, err = r.db.Exec(ctx, query,
		record.ID, record.Branch, string(record.Status), files,
		record.Error, record.StartedAt, record.FinishedAt)
	if err != nil {
		return r.handlePostgresError("save record", err)
	}
	return nil
}

func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (*publish.Record, error) {
	query := `
		SELECT id, branch, status, files, error, started_at, finished_at
		FROM publish_record WHERE id = $1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publish.ErrRecordNotFound
		}
		return nil, r.handlePostgresError("get record", err)
	}
	return record, nil
}

func (r *Repository) ListRecords(ctx context.Context, limit int) ([]*publish.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, branch, status, files, error, started_at, finished_at
		FROM publish_record ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, r.handlePostgresError("list records", err)
	}
	defer rows.Close()

	var records []*publish.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, r.handlePostgresError("list records", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list records", err)
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*publish.Record, error) {
	var record publish.Record
	var status string
	var files []byte
	if err := row.Scan(&record.ID, &record.Branch, &status, &files,
		&record.Error, &record.StartedAt, &record.FinishedAt); err != nil {
		return nil, err
	}
	record.Status = publish.RecordStatus(status)
	if err := json.Unmarshal(files, &record.Files); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	return &record, nil
}

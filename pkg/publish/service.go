package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher runs publish requests against a content store and records the
// outcome of each one.
type Publisher struct {
	store         ContentStore
	history       HistoryStore
	repo          Repository
	postsPath     string
	defaultBranch string
	logger        *slog.Logger

	pipeline *Pipeline
}

// Option represents a functional option for configuring the publisher
type Option func(*Publisher)

// WithContentStore sets the store files are written to
func WithContentStore(store ContentStore) Option {
	return func(p *Publisher) {
		p.store = store
	}
}

// WithHistoryStore sets where publish records are kept
func WithHistoryStore(history HistoryStore) Option {
	return func(p *Publisher) {
		p.history = history
	}
}

// WithRepository sets the owner and name of the target repository
func WithRepository(owner, name string) Option {
	return func(p *Publisher) {
		p.repo = Repository{Owner: owner, Name: name}
	}
}

// WithPostsPath overrides the path the posts collection is written to
func WithPostsPath(path string) Option {
	return func(p *Publisher) {
		p.postsPath = path
	}
}

// WithDefaultBranch overrides the branch used when a request names none
func WithDefaultBranch(branch string) Option {
	return func(p *Publisher) {
		p.defaultBranch = branch
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a new Publisher with the given options
func New(options ...Option) (*Publisher, error) {
	p := &Publisher{
		postsPath:     DefaultPostsPath,
		defaultBranch: DefaultBranch,
	}

	for _, option := range options {
		option(p)
	}

	if p.store == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if p.history == nil {
		p.history = NewNoopHistoryStore()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	p.pipeline = NewPipeline(NewUpserter(p.store, p.repo, p.logger), p.logger)
	return p, nil
}

// Publish writes the posts collection and images of req. Writes stop at the
// first failure; files written before it stay committed. The returned record
// describes every planned file and is non-nil whenever planning succeeded.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (*Record, error) {
	branch := req.Branch
	if branch == "" {
		branch = p.defaultBranch
	}

	steps, err := Plan(req, p.postsPath)
	if err != nil {
		return nil, err
	}

	record := &Record{
		ID:        uuid.New(),
		Branch:    branch,
		StartedAt: time.Now().UTC(),
	}

	out := p.pipeline.Run(ctx, branch, steps)

	record.Files = out.Files
	record.FinishedAt = time.Now().UTC()
	record.Status = RecordSucceeded
	if out.Err != nil {
		record.Status = RecordFailed
		record.Error = out.Err.Error()
	}

	// Recorded even when the client has gone away.
	if err := p.history.SaveRecord(context.WithoutCancel(ctx), record); err != nil {
		p.logger.Error("failed to save publish record", "publish_id", record.ID, "error", err)
	}

	p.logger.Info("publish finished",
		"publish_id", record.ID,
		"branch", branch,
		"status", record.Status,
		"files", len(record.Files),
		"written", len(record.Written()))

	return record, out.Err
}

// GetRecord returns the history record of a previous publish
func (p *Publisher) GetRecord(ctx context.Context, id uuid.UUID) (*Record, error) {
	record, err := p.history.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get publish record %s: %w", id, err)
	}
	return record, nil
}

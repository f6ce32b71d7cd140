package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-publish/pkg/publish"
	historymemory "github.com/tendant/simple-publish/pkg/publish/history/memory"
	historypg "github.com/tendant/simple-publish/pkg/publish/history/postgres"
	fsstorage "github.com/tendant/simple-publish/pkg/publish/storage/fs"
	githubstorage "github.com/tendant/simple-publish/pkg/publish/storage/github"
	memorystorage "github.com/tendant/simple-publish/pkg/publish/storage/memory"
	s3storage "github.com/tendant/simple-publish/pkg/publish/storage/s3"
)

// Content store backends
const (
	BackendGitHub = "github"
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendS3     = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		Environment:   "development",
		DefaultBranch: publish.DefaultBranch,
		PostsPath:     publish.DefaultPostsPath,
		MaxBodyBytes:  25 << 20,
		Backend:       BackendGitHub,
		GitHubAPIURL:  githubstorage.DefaultBaseURL,
		S3Region:      "us-east-1",
		DatabaseType:  "memory",
	}
}

// ServerConfig is the process-wide publish configuration. It is built once at
// startup and passed by value afterwards.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Request gate
	AllowedOrigins []string
	PublishKey     string
	MaxBodyBytes   int64

	// Target repository
	RepoOwner     string
	RepoName      string
	DefaultBranch string
	PostsPath     string

	// Content store
	Backend      string // github, memory, fs, s3
	GitHubToken  string
	GitHubAPIURL string
	FSBaseDir    string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool
	S3Prefix          string

	// Publish history
	DatabaseType string // memory, postgres
	DatabaseURL  string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.PublishKey, validation.Required),
		validation.Field(&c.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.DefaultBranch, validation.Required),
		validation.Field(&c.PostsPath, validation.Required),
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendGitHub, BackendMemory, BackendFS, BackendS3)),
		validation.Field(&c.RepoOwner, validation.When(c.Backend == BackendGitHub, validation.Required)),
		validation.Field(&c.RepoName, validation.When(c.Backend == BackendGitHub, validation.Required)),
		validation.Field(&c.GitHubToken, validation.When(c.Backend == BackendGitHub, validation.Required)),
		validation.Field(&c.FSBaseDir, validation.When(c.Backend == BackendFS, validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Backend == BackendS3, validation.Required)),
		validation.Field(&c.DatabaseType, validation.Required, validation.In("memory", "postgres")),
		validation.Field(&c.DatabaseURL, validation.When(c.DatabaseType == "postgres", validation.Required)),
	)
}

// OriginAllowed reports whether origin is in the allow-list
func (c ServerConfig) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// BuildContentStore creates the ContentStore selected by Backend
func (c ServerConfig) BuildContentStore(httpClient *http.Client) (publish.ContentStore, error) {
	switch c.Backend {
	case BackendGitHub:
		return githubstorage.New(githubstorage.Config{
			Token:      c.GitHubToken,
			BaseURL:    c.GitHubAPIURL,
			HTTPClient: httpClient,
		})
	case BackendMemory:
		return memorystorage.New(), nil
	case BackendFS:
		return fsstorage.New(fsstorage.Config{BaseDir: c.FSBaseDir})
	case BackendS3:
		return s3storage.New(s3storage.Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.S3UsePathStyle,
			Prefix:          c.S3Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported content backend: %s", c.Backend)
	}
}

// BuildHistoryStore creates the HistoryStore selected by DatabaseType. The
// returned close function releases any connection pool.
func (c ServerConfig) BuildHistoryStore(ctx context.Context) (publish.HistoryStore, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return historymemory.New(), func() {}, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database ping failed: %w", err)
		}
		repo := historypg.NewWithPool(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildPublisher wires the content store and history store into a Publisher
func (c ServerConfig) BuildPublisher(ctx context.Context, logger *slog.Logger) (*publish.Publisher, func(), error) {
	store, err := c.BuildContentStore(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build content store: %w", err)
	}

	history, closeHistory, err := c.BuildHistoryStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build history store: %w", err)
	}

	p, err := publish.New(
		publish.WithContentStore(store),
		publish.WithHistoryStore(history),
		publish.WithRepository(c.RepoOwner, c.RepoName),
		publish.WithDefaultBranch(c.DefaultBranch),
		publish.WithPostsPath(c.PostsPath),
		publish.WithLogger(logger),
	)
	if err != nil {
		closeHistory()
		return nil, nil, err
	}
	return p, closeHistory, nil
}

// ParseOrigins splits a comma-delimited allow-list, trimming entries and
// dropping empty ones.
func ParseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

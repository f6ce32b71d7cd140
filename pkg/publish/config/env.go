package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig mirrors ServerConfig with environment bindings.
type envConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	Origins      string `env:"PUBLISH_ORIGINS"`
	PublishKey   string `env:"PUBLISH_KEY"`
	MaxBodyBytes int64  `env:"PUBLISH_MAX_BODY_BYTES" env-default:"26214400"`

	RepoOwner     string `env:"REPO_OWNER"`
	RepoName      string `env:"REPO_NAME"`
	DefaultBranch string `env:"PUBLISH_DEFAULT_BRANCH" env-default:"main"`
	PostsPath     string `env:"PUBLISH_POSTS_PATH" env-default:"public/data/blog-posts.json"`

	Backend      string `env:"CONTENT_BACKEND" env-default:"github"`
	GitHubToken  string `env:"GITHUB_TOKEN"`
	GitHubAPIURL string `env:"GITHUB_API_URL" env-default:"https://api.github.com"`
	FSBaseDir    string `env:"FS_BASE_DIR"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" env-default:"us-east-1"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	S3Prefix          string `env:"S3_PREFIX"`

	DatabaseURL string `env:"DATABASE_URL"`
}

// WithEnv reads the process environment.
//
// Environment variable mapping:
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//
// Request gate:
//
//	PUBLISH_ORIGINS - Comma-separated allow-list of origins
//	PUBLISH_KEY - Shared secret expected in X-Publish-Key
//	PUBLISH_MAX_BODY_BYTES - Request body limit (default: 25MB)
//
// Repository:
//
//	REPO_OWNER, REPO_NAME - Target repository
//	PUBLISH_DEFAULT_BRANCH - Branch used when a request names none (default: "main")
//	PUBLISH_POSTS_PATH - Where the posts collection is written
//
// Content store:
//
//	CONTENT_BACKEND - "github" (default), "memory", "fs" or "s3"
//	GITHUB_TOKEN, GITHUB_API_URL - GitHub backend
//	FS_BASE_DIR - Filesystem backend
//	S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY,
//	S3_USE_PATH_STYLE, S3_PREFIX - S3 backend
//
// History:
//
//	DATABASE_URL - "memory" (default) or "postgres://..."
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		c.Port = env.Port
		c.Environment = env.Environment
		c.AllowedOrigins = ParseOrigins(env.Origins)
		c.PublishKey = env.PublishKey
		c.MaxBodyBytes = env.MaxBodyBytes

		c.RepoOwner = env.RepoOwner
		c.RepoName = env.RepoName
		c.DefaultBranch = env.DefaultBranch
		c.PostsPath = env.PostsPath

		c.Backend = strings.ToLower(env.Backend)
		c.GitHubToken = env.GitHubToken
		c.GitHubAPIURL = env.GitHubAPIURL
		c.FSBaseDir = env.FSBaseDir

		c.S3Bucket = env.S3Bucket
		c.S3Region = env.S3Region
		c.S3Endpoint = env.S3Endpoint
		c.S3AccessKeyID = env.S3AccessKeyID
		c.S3SecretAccessKey = env.S3SecretAccessKey
		c.S3UsePathStyle = env.S3UsePathStyle
		c.S3Prefix = env.S3Prefix

		return applyDatabaseEnv(env.DatabaseURL, c)
	}
}

// applyDatabaseEnv picks the history store from DATABASE_URL
func applyDatabaseEnv(dbURL string, c *ServerConfig) error {
	if dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
		return nil
	}

	return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
}

package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithAllowedOrigins replaces the origin allow-list
func WithAllowedOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.AllowedOrigins = append([]string(nil), origins...)
		return nil
	}
}

// WithPublishKey sets the shared secret clients must send
func WithPublishKey(key string) Option {
	return func(c *ServerConfig) error {
		c.PublishKey = key
		return nil
	}
}

// WithRepository sets the target repository
func WithRepository(owner, name string) Option {
	return func(c *ServerConfig) error {
		c.RepoOwner = owner
		c.RepoName = name
		return nil
	}
}

// WithGitHub selects the GitHub backend
func WithGitHub(token, apiURL string) Option {
	return func(c *ServerConfig) error {
		c.Backend = BackendGitHub
		c.GitHubToken = token
		if apiURL != "" {
			c.GitHubAPIURL = apiURL
		}
		return nil
	}
}

// WithMemoryBackend selects the in-memory content store
func WithMemoryBackend() Option {
	return func(c *ServerConfig) error {
		c.Backend = BackendMemory
		return nil
	}
}

// WithFilesystemBackend selects the filesystem content store
func WithFilesystemBackend(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("base directory cannot be empty")
		}
		c.Backend = BackendFS
		c.FSBaseDir = baseDir
		return nil
	}
}

// WithDatabase configures the publish history backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

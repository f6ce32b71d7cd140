package fs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendant/simple-publish/pkg/publish"
)

// Backend is a filesystem implementation of the publish.ContentStore interface.
// Each branch is a directory under BaseDir holding a working tree.
type Backend struct {
	mu      sync.Mutex
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory holding one working tree per branch
}

// New creates a new filesystem content store
func New(config Config) (publish.ContentStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	baseDir, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{baseDir: baseDir}, nil
}

// filePath maps a target onto the filesystem, rejecting paths that escape the
// branch's working tree.
func (b *Backend) filePath(target publish.Target) (string, error) {
	if target.Branch == "" || target.Path == "" {
		return "", errors.New("branch and path are required")
	}
	root := filepath.Join(b.baseDir, filepath.FromSlash(target.Branch))
	if !strings.HasPrefix(root, b.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid branch %q", target.Branch)
	}
	p := filepath.Join(root, filepath.FromSlash(target.Path))
	if !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path %q", target.Path)
	}
	return p, nil
}

// Lookup returns the git blob id of the file on disk
func (b *Backend) Lookup(ctx context.Context, target publish.Target) (string, error) {
	p, err := b.filePath(target)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", target.Path, publish.ErrFileNotFound)
	} else if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return publish.BlobAddress(data), nil
}

// Write replaces the file if req.Address matches what is on disk
func (b *Backend) Write(ctx context.Context, target publish.Target, req publish.WriteRequest) (*publish.WriteResult, error) {
	p, err := b.filePath(target)
	if err != nil {
		return nil, &publish.RemoteAPIError{
			Method:     http.MethodPut,
			Path:       target.Path,
			StatusCode: http.StatusUnprocessableEntity,
			Body:       err.Error(),
		}
	}
	data, err := publish.DecodeContent(http.MethodPut, target.Path, req.Content)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := os.ReadFile(p)
	switch {
	case err == nil:
		if current := publish.BlobAddress(existing); req.Address != current {
			return nil, publish.NewConflictError(http.MethodPut, target.Path, current, req.Address)
		}
	case os.IsNotExist(err):
		if req.Address != "" {
			return nil, publish.NewConflictError(http.MethodPut, target.Path, "", req.Address)
		}
	default:
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := writeFileAtomic(p, data); err != nil {
		return nil, err
	}

	return &publish.WriteResult{
		Path:    target.Path,
		Address: publish.BlobAddress(data),
	}, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".publish-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

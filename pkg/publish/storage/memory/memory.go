package memory

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/tendant/simple-publish/pkg/publish"
)

// Backend is an in-memory implementation of the publish.ContentStore interface.
// Content-addresses are git blob ids, and writes are checked against them the
// way the GitHub contents API checks "sha".
type Backend struct {
	mu     sync.RWMutex
	files  map[string][]byte
	writes []string
}

// New creates a new in-memory content store
func New() *Backend {
	return &Backend{
		files: make(map[string][]byte),
	}
}

func key(target publish.Target) string {
	return fmt.Sprintf("%s/%s@%s:%s", target.Owner, target.Repo, target.Branch, target.Path)
}

// Lookup returns the content-address of the target
func (b *Backend) Lookup(ctx context.Context, target publish.Target) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.files[key(target)]
	if !exists {
		return "", fmt.Errorf("%s: %w", target.Path, publish.ErrFileNotFound)
	}
	return publish.BlobAddress(data), nil
}

// Write stores the decoded content if req.Address matches the current state
func (b *Backend) Write(ctx context.Context, target publish.Target, req publish.WriteRequest) (*publish.WriteResult, error) {
	data, err := publish.DecodeContent(http.MethodPut, target.Path, req.Content)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	k := key(target)
	existing, exists := b.files[k]
	switch {
	case exists:
		if current := publish.BlobAddress(existing); req.Address != current {
			return nil, publish.NewConflictError(http.MethodPut, target.Path, current, req.Address)
		}
	case req.Address != "":
		return nil, publish.NewConflictError(http.MethodPut, target.Path, "", req.Address)
	}

	b.files[k] = data
	b.writes = append(b.writes, target.Path)

	return &publish.WriteResult{
		Path:    target.Path,
		Address: publish.BlobAddress(data),
	}, nil
}

// Read returns the stored bytes of the target
func (b *Backend) Read(ctx context.Context, target publish.Target) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.files[key(target)]
	if !exists {
		return nil, fmt.Errorf("%s: %w", target.Path, publish.ErrFileNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Writes returns the paths written so far, in order
func (b *Backend) Writes() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.writes))
	copy(out, b.writes)
	return out
}

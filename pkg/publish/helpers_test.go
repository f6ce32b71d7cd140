package publish

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

type writeCall struct {
	Target  Target
	Request WriteRequest
}

// fakeStore records every call and answers from canned tables keyed by path.
type fakeStore struct {
	mu         sync.Mutex
	addresses  map[string]string
	lookupErrs map[string]error
	writeErrs  map[string]error
	lookups    []Target
	writes     []writeCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		addresses:  map[string]string{},
		lookupErrs: map[string]error{},
		writeErrs:  map[string]error{},
	}
}

func (f *fakeStore) Lookup(ctx context.Context, target Target) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, target)
	if err, ok := f.lookupErrs[target.Path]; ok {
		return "", err
	}
	if addr, ok := f.addresses[target.Path]; ok {
		return addr, nil
	}
	return "", ErrFileNotFound
}

func (f *fakeStore) Write(ctx context.Context, target Target, req WriteRequest) (*WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, writeCall{Target: target, Request: req})
	if err, ok := f.writeErrs[target.Path]; ok {
		return nil, err
	}
	return &WriteResult{Path: target.Path, Address: "new-" + target.Path}, nil
}

func (f *fakeStore) writtenPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var paths []string
	for _, w := range f.writes {
		paths = append(paths, w.Target.Path)
	}
	return paths
}

// bufferLogger returns a logger writing text records into buf
func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

package publish

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
)

// Upserter writes single files with create-if-absent-else-update semantics.
type Upserter struct {
	store  ContentStore
	repo   Repository
	logger *slog.Logger
}

// NewUpserter creates an Upserter writing into repo through store.
func NewUpserter(store ContentStore, repo Repository, logger *slog.Logger) *Upserter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Upserter{store: store, repo: repo, logger: logger}
}

// Resolve looks up the target's content-address and classifies the result.
func (u *Upserter) Resolve(ctx context.Context, target Target) Lookup {
	address, err := u.store.Lookup(ctx, target)
	switch {
	case err == nil && address != "":
		return Lookup{State: LookupPresent, Address: address}
	case err == nil, errors.Is(err, ErrFileNotFound):
		return Lookup{State: LookupAbsent}
	default:
		return Lookup{State: LookupUnknown, Err: err}
	}
}

// Upsert writes content to path on branch. Textual content is base64 encoded
// here; preEncoded content is passed through unchanged. Lookup failures are
// never returned: an unknown state falls back to a create attempt.
func (u *Upserter) Upsert(ctx context.Context, branch, path string, content []byte, preEncoded bool) (*WriteResult, error) {
	target := Target{
		Owner:  u.repo.Owner,
		Repo:   u.repo.Name,
		Branch: branch,
		Path:   path,
	}

	lookup := u.Resolve(ctx, target)
	if lookup.State == LookupUnknown {
		u.logger.Warn("content-address lookup failed, treating file as absent",
			"path", path, "branch", branch, "error", lookup.Err)
	}

	encoded := string(content)
	if !preEncoded {
		encoded = base64.StdEncoding.EncodeToString(content)
	}

	req := WriteRequest{
		Message: fmt.Sprintf("CMS publish: %s", path),
		Branch:  branch,
		Content: encoded,
	}
	if lookup.State == LookupPresent {
		req.Address = lookup.Address
	}

	u.logger.Debug("upserting file", "path", path, "branch", branch, "lookup", lookup.State.String())
	return u.store.Write(ctx, target, req)
}

package publish

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBranch is used when a publish request does not name a branch.
	DefaultBranch = "main"

	// DefaultPostsPath is the repository path the posts collection is written to.
	DefaultPostsPath = "public/data/blog-posts.json"
)

// PublishRequest is the inbound publish payload.
type PublishRequest struct {
	// Posts are opaque post records, re-serialized verbatim.
	Posts  []json.RawMessage `json:"posts"`
	Images []ImageAsset      `json:"images,omitempty"`
	Branch string            `json:"branch,omitempty"`
}

// ImageAsset is an image to be written at a repository-relative path.
// ContentBase64 may carry a data-URI prefix.
type ImageAsset struct {
	Path          string `json:"path"`
	ContentBase64 string `json:"contentBase64"`
}

// Repository names the remote repository files are written to.
type Repository struct {
	Owner string
	Name  string
}

// Target identifies one remote file.
type Target struct {
	Owner  string
	Repo   string
	Branch string
	Path   string
}

// LookupState is the outcome of a content-address lookup.
type LookupState int

const (
	// LookupAbsent means the store confirmed the file does not exist.
	LookupAbsent LookupState = iota
	// LookupPresent means the file exists and Address holds its content-address.
	LookupPresent
	// LookupUnknown means the lookup failed for a reason other than not-found.
	LookupUnknown
)

func (s LookupState) String() string {
	switch s {
	case LookupPresent:
		return "present"
	case LookupAbsent:
		return "absent"
	case LookupUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Lookup is the classified result of resolving a target's content-address.
type Lookup struct {
	State   LookupState
	Address string
	Err     error
}

// WriteRequest is the body of a create-or-update write.
type WriteRequest struct {
	Message string
	Branch  string
	// Content is base64 encoded.
	Content string
	// Address is the current content-address. Empty means create.
	Address string
}

// WriteResult is a store's response to a successful write.
type WriteResult struct {
	Path    string          `json:"path"`
	Address string          `json:"address,omitempty"`
	Commit  string          `json:"commit,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Step is one planned file write.
type Step struct {
	Path       string
	Content    []byte
	PreEncoded bool
}

// RecordStatus is the final state of a publish.
type RecordStatus string

const (
	RecordSucceeded RecordStatus = "succeeded"
	RecordFailed    RecordStatus = "failed"
)

// FileStatus is the state of one file within a publish.
type FileStatus string

const (
	FileWritten FileStatus = "written"
	FileFailed  FileStatus = "failed"
	FileSkipped FileStatus = "skipped"
)

// FileOutcome reports what happened to one planned step.
type FileOutcome struct {
	Path    string     `json:"path"`
	Status  FileStatus `json:"status"`
	Address string     `json:"address,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Record is the history entry of one publish request.
type Record struct {
	ID         uuid.UUID     `json:"id"`
	Branch     string        `json:"branch"`
	Status     RecordStatus  `json:"status"`
	Files      []FileOutcome `json:"files"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Written returns the paths that were committed before the publish ended.
func (r *Record) Written() []string {
	var paths []string
	for _, f := range r.Files {
		if f.Status == FileWritten {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Plan turns a publish request into an ordered list of writes: the posts
// collection first, then every image that has both a path and content.
func Plan(req PublishRequest, postsPath string) ([]Step, error) {
	posts, err := encodePosts(req.Posts)
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(req.Images)+1)
	steps = append(steps, Step{Path: postsPath, Content: posts})

	for _, img := range req.Images {
		if img.Path == "" || img.ContentBase64 == "" {
			continue
		}
		steps = append(steps, Step{
			Path:       img.Path,
			Content:    []byte(StripDataURI(img.ContentBase64)),
			PreEncoded: true,
		})
	}
	return steps, nil
}

// StripDataURI drops everything up to and including the last comma, which
// removes a "data:<mime>;base64," prefix.
func StripDataURI(s string) string {
	if i := strings.LastIndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}

// encodePosts serializes posts with two-space indentation. HTML characters are
// left unescaped so records round-trip byte for byte.
func encodePosts(posts []json.RawMessage) ([]byte, error) {
	if posts == nil {
		posts = []json.RawMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return nil, fmt.Errorf("encode posts: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Outcome is the result of running a pipeline. Files has one entry per step;
// Err is the first write failure, if any.
type Outcome struct {
	Files []FileOutcome
	Err   error
}

// Pipeline executes planned steps strictly in order and stops at the first
// failure. Steps after the failure are reported as skipped; nothing already
// written is rolled back.
type Pipeline struct {
	upserter *Upserter
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline that writes through upserter.
func NewPipeline(upserter *Upserter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{upserter: upserter, logger: logger}
}

// Run writes steps to branch.
func (p *Pipeline) Run(ctx context.Context, branch string, steps []Step) Outcome {
	out := Outcome{Files: make([]FileOutcome, 0, len(steps))}

	for i, step := range steps {
		if out.Err != nil {
			out.Files = append(out.Files, FileOutcome{Path: step.Path, Status: FileSkipped})
			continue
		}

		res, err := p.upserter.Upsert(ctx, branch, step.Path, step.Content, step.PreEncoded)
		if err != nil {
			p.logger.Error("file write failed",
				"path", step.Path, "branch", branch, "step", i, "remaining", len(steps)-i-1, "error", err)
			out.Err = err
			out.Files = append(out.Files, FileOutcome{Path: step.Path, Status: FileFailed, Error: err.Error()})
			continue
		}

		fo := FileOutcome{Path: step.Path, Status: FileWritten}
		if res != nil {
			fo.Address = res.Address
		}
		out.Files = append(out.Files, fo)
	}
	return out
}

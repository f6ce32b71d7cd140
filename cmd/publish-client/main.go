package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tendant/simple-publish/pkg/publish"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("publish-client: %v", err)
	}
}

// imageFlags collects repeated -image repoPath=localFile values
type imageFlags []string

func (f *imageFlags) String() string {
	return strings.Join(*f, ",")
}

func (f *imageFlags) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("image must be repoPath=localFile, got %q", value)
	}
	*f = append(*f, value)
	return nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("publish-client", flag.ContinueOnError)
	baseURL := fs.String("url", "http://localhost:8080", "Publish server base URL")
	key := fs.String("key", os.Getenv("PUBLISH_KEY"), "Publish key sent as X-Publish-Key")
	postsFile := fs.String("posts", "", "Path to a JSON file holding the posts array")
	branch := fs.String("branch", "", "Target branch (server default when empty)")
	origin := fs.String("origin", "", "Origin header to send")
	status := fs.String("status", "", "Print the record of a previous publish instead of publishing")
	timeout := fs.Duration("timeout", 2*time.Minute, "Request timeout")
	var images imageFlags
	fs.Var(&images, "image", "Image to publish as repoPath=localFile (repeatable)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if *status != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			strings.TrimRight(*baseURL, "/")+"/publishes/"+*status, nil)
		if err != nil {
			return err
		}
		return send(req, *key, *origin, out)
	}

	if *postsFile == "" {
		return fmt.Errorf("-posts is required")
	}

	body, err := buildRequest(*postsFile, *branch, images)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(*baseURL, "/")+"/publish", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return send(req, *key, *origin, out)
}

func buildRequest(postsFile, branch string, images []string) ([]byte, error) {
	raw, err := os.ReadFile(postsFile)
	if err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}
	var posts []json.RawMessage
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, fmt.Errorf("posts file must hold a JSON array: %w", err)
	}

	req := publish.PublishRequest{Posts: posts, Branch: branch}
	for _, image := range images {
		repoPath, localFile, _ := strings.Cut(image, "=")
		data, err := os.ReadFile(localFile)
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", localFile, err)
		}
		req.Images = append(req.Images, publish.ImageAsset{
			Path:          repoPath,
			ContentBase64: base64.StdEncoding.EncodeToString(data),
		})
	}

	return json.Marshal(req)
}

func send(req *http.Request, key, origin string, out io.Writer) error {
	if key != "" {
		req.Header.Set("X-Publish-Key", key)
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	fmt.Fprintf(out, "%s\n", resp.Status)
	if id := resp.Header.Get("X-Publish-ID"); id != "" {
		fmt.Fprintf(out, "publish id: %s\n", id)
	}
	fmt.Fprintf(out, "%s\n", bytes.TrimSpace(respBody))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

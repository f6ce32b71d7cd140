package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tendant/simple-publish/pkg/publish"
)

const (
	// DefaultBaseURL is the public GitHub REST API host
	DefaultBaseURL = "https://api.github.com"

	mediaType  = "application/vnd.github+json"
	apiVersion = "2022-11-28"
)

// Config options for the GitHub content client
type Config struct {
	Token      string       // Bearer token with contents:write on the repository
	BaseURL    string       // API host (default: https://api.github.com)
	UserAgent  string       // Optional User-Agent header (default: simple-publish)
	HTTPClient *http.Client // Optional HTTP client (default: http.DefaultClient)
}

// Client talks to the GitHub repository contents API. It implements
// publish.ContentStore.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
}

// New creates a new GitHub content client
func New(config Config) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("github token is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.UserAgent == "" {
		config.UserAgent = "simple-publish"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	return &Client{
		httpClient: config.HTTPClient,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		userAgent:  config.UserAgent,
	}, nil
}

// Call performs one authenticated request against the API and returns the raw
// JSON response. A non-2xx status is returned as a *publish.RemoteAPIError
// carrying the full response body.
func (c *Client) Call(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", mediaType)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &publish.RemoteAPIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	return json.RawMessage(data), nil
}

type contentsResponse struct {
	Type string `json:"type"`
	SHA  string `json:"sha"`
}

type writeBody struct {
	Message string `json:"message"`
	Branch  string `json:"branch"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type writeResponse struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Lookup returns the blob SHA of the file at target.Path on target.Branch
func (c *Client) Lookup(ctx context.Context, target publish.Target) (string, error) {
	path := contentsPath(target) + "?" + url.Values{"ref": {target.Branch}}.Encode()

	raw, err := c.Call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}

	// A directory listing is not a file we can update.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		return "", fmt.Errorf("%s is a directory: %w", target.Path, publish.ErrFileNotFound)
	}

	var meta contentsResponse
	if err := json.Unmarshal(raw, &meta); err != nil {
		return "", fmt.Errorf("failed to decode contents response: %w", err)
	}
	return meta.SHA, nil
}

// Write creates or updates the file at target.Path. The sha field is sent only
// when req.Address is set.
func (c *Client) Write(ctx context.Context, target publish.Target, req publish.WriteRequest) (*publish.WriteResult, error) {
	raw, err := c.Call(ctx, http.MethodPut, contentsPath(target), writeBody{
		Message: req.Message,
		Branch:  req.Branch,
		Content: req.Content,
		SHA:     req.Address,
	})
	if err != nil {
		return nil, err
	}

	result := &publish.WriteResult{Path: target.Path, Raw: raw}
	var resp writeResponse
	if err := json.Unmarshal(raw, &resp); err == nil {
		result.Address = resp.Content.SHA
		result.Commit = resp.Commit.SHA
	}
	return result, nil
}

// contentsPath escapes the file path as a single segment, so "/" is sent as %2F.
func contentsPath(target publish.Target) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(target.Owner), url.PathEscape(target.Repo), url.PathEscape(target.Path))
}

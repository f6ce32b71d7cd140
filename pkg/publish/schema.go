package publish

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const requestSchemaURL = "https://simple-publish.local/schemas/publish-request.schema.json"

// requestSchema constrains the outer shape only. Image entries are left
// unconstrained: malformed entries are skipped, not rejected.
const requestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["posts"],
  "properties": {
    "posts": {"type": "array"},
    "images": {"type": "array"},
    "branch": {"type": "string"}
  }
}`

var compiledRequestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(requestSchemaURL, strings.NewReader(requestSchema)); err != nil {
		return nil, fmt.Errorf("publish schema load failed: %w", err)
	}
	return c.Compile(requestSchemaURL)
})

// wireRequest keeps images raw so one malformed entry does not fail the decode.
type wireRequest struct {
	Posts  []json.RawMessage `json:"posts"`
	Images []json.RawMessage `json:"images"`
	Branch string            `json:"branch"`
}

// DecodeRequest validates body against the publish request schema and
// decodes it. Any failure is reported as a *ValidationError.
func DecodeRequest(body []byte) (PublishRequest, error) {
	invalid := &ValidationError{Message: "Invalid posts"}

	schema, err := compiledRequestSchema()
	if err != nil {
		return PublishRequest{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return PublishRequest{}, invalid
	}
	if err := schema.Validate(doc); err != nil {
		return PublishRequest{}, invalid
	}

	var wire wireRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		return PublishRequest{}, invalid
	}

	req := PublishRequest{Posts: wire.Posts, Branch: wire.Branch}
	if req.Posts == nil {
		req.Posts = []json.RawMessage{}
	}
	for _, raw := range wire.Images {
		var img ImageAsset
		if err := json.Unmarshal(raw, &img); err != nil {
			continue
		}
		req.Images = append(req.Images, img)
	}
	return req, nil
}

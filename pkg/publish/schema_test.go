package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		req, err := DecodeRequest([]byte(`{
			"posts": [{"slug": "a", "views": 12345678901234567890}],
			"images": [
				{"path": "public/a.png", "contentBase64": "AAAA"},
				"not an object",
				{"path": 7}
			],
			"branch": "preview"
		}`))
		require.NoError(t, err)

		require.Len(t, req.Posts, 1)
		assert.JSONEq(t, `{"slug": "a", "views": 12345678901234567890}`, string(req.Posts[0]))
		assert.Equal(t, []ImageAsset{{Path: "public/a.png", ContentBase64: "AAAA"}}, req.Images)
		assert.Equal(t, "preview", req.Branch)
	})

	t.Run("empty posts", func(t *testing.T) {
		req, err := DecodeRequest([]byte(`{"posts": []}`))
		require.NoError(t, err)
		assert.NotNil(t, req.Posts)
		assert.Empty(t, req.Posts)
		assert.Empty(t, req.Branch)
	})

	invalid := []struct {
		name string
		body string
	}{
		{name: "not json", body: `posts`},
		{name: "empty body", body: ``},
		{name: "array document", body: `[]`},
		{name: "missing posts", body: `{"images": []}`},
		{name: "posts is object", body: `{"posts": {}}`},
		{name: "posts is string", body: `{"posts": "a"}`},
		{name: "posts is null", body: `{"posts": null}`},
		{name: "images is object", body: `{"posts": [], "images": {}}`},
		{name: "branch is number", body: `{"posts": [], "branch": 1}`},
		{name: "trailing data", body: `{"posts": []} {}`},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.body))
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "Invalid posts", validationErr.Message)
		})
	}
}

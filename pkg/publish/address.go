package publish

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
)

// BlobAddress returns the git blob id of data, the same content-address the
// GitHub contents API reports as "sha".
func BlobAddress(data []byte) string {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(data)) + "\x00"))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DecodeContent decodes the base64 content of a write request. Invalid input
// is reported the way the remote API reports it, as a 422.
func DecodeContent(method, path, content string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, &RemoteAPIError{
			Method:     method,
			Path:       path,
			StatusCode: http.StatusUnprocessableEntity,
			Body:       fmt.Sprintf(`{"message":"content is not valid Base64: %v"}`, err),
		}
	}
	return data, nil
}

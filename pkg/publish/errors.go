package publish

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFileNotFound indicates the target file does not exist in the store
	ErrFileNotFound = errors.New("file not found")

	// ErrConflict indicates a write was rejected by the store's optimistic concurrency check
	ErrConflict = errors.New("content-address conflict")

	// ErrRecordNotFound indicates a publish record was not found
	ErrRecordNotFound = errors.New("publish record not found")
)

// ValidationError is returned for a malformed request (bad method or payload).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError is returned when the origin or the publish key is rejected.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// RemoteAPIError is a non-2xx response from a content API. Body holds the full
// response text.
type RemoteAPIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("%s %s %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is maps remote statuses onto the package sentinels.
func (e *RemoteAPIError) Is(target error) bool {
	switch target {
	case ErrFileNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// NewConflictError builds the error local stores return when a write does not
// carry the address the store expects. A missing address on an existing file
// mirrors the remote's 422, a stale one its 409.
func NewConflictError(method, path, expected, got string) *RemoteAPIError {
	if got == "" {
		return &RemoteAPIError{
			Method:     method,
			Path:       path,
			StatusCode: http.StatusUnprocessableEntity,
			Body:       fmt.Sprintf(`{"message":"\"sha\" wasn't supplied for existing file %s"}`, path),
		}
	}
	return &RemoteAPIError{
		Method:     method,
		Path:       path,
		StatusCode: http.StatusConflict,
		Body:       fmt.Sprintf(`{"message":"%s does not match %s"}`, path, expected),
	}
}

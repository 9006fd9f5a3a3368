package image

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds surfaced by every top-level operation. Callers match them with
// errors.Is; the wrapped message carries the specifics.
var (
	ErrInvalidReference = errors.New("invalid image reference")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrRemoteTransport  = errors.New("remote transport error")
	ErrAuth             = errors.New("authentication required")
)

// RemoteError describes a failed exchange with the remote registry.
// It matches ErrRemoteTransport, and additionally ErrAuth when the registry
// rejected the credentials.
type RemoteError struct {
	Op         string // "list", "meta", "get", "upload"
	URL        string
	StatusCode int    // 0 when no response was received
	Body       string // response body, trimmed by the caller
	Err        error  // underlying transport or decode error, if any
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is reports whether target is one of the error kinds this error belongs to.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteTransport:
		return true
	case ErrAuth:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

package api

import (
	"errors"
	"fmt"
)

// ErrHTTPStatus is wrapped by every Error caused by a non-2xx response.
var ErrHTTPStatus = errors.New("unexpected http status")

// Error is returned by every Client method that fails. StatusCode is zero when
// the request never produced a response (connection failure, timeout,
// cancellation); Err then holds the transport error.
type Error struct {
	Op         string
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("api %s: %s %s: status %d: %v", e.Op, e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("api %s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode reports the HTTP status carried by err, or 0 if err is not an
// *Error produced from a response.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

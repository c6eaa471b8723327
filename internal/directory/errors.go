package directory

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork reports that the directory could not be reached.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse reports a success status with an unreadable body.
	ErrMalformedResponse = errors.New("malformed directory response")
)

// RejectedError is returned when the directory answers with a non-success
// status. Message is the body's "error" field when present, otherwise a
// per-operation default.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("directory rejected request (%d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 rejection.
func IsNotFound(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected) && rejected.Status == http.StatusNotFound
}

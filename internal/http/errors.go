package http

import (
	"errors"
	"net/http"

	"user-console/internal/directory"
	"user-console/internal/service"
	"user-console/internal/storage"
)

const (
	msgMissingFields = "Please fill in all fields!"
	msgNetwork       = "Network error. Please try again."
	msgInternal      = "Something went wrong. Please try again."
)

// userMessage turns a service error into the text shown to the user.
func userMessage(err error) string {
	var rejected *directory.RejectedError
	switch {
	case errors.Is(err, service.ErrMissingCredentials), errors.Is(err, service.ErrMissingFields):
		return msgMissingFields
	case errors.Is(err, service.ErrInvalidUserID):
		return "Invalid user id."
	case errors.Is(err, service.ErrUserDeleted):
		return "User not found."
	case errors.Is(err, directory.ErrNetwork):
		return msgNetwork
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.Is(err, service.ErrSnapshotsDisabled):
		return "Snapshots are not configured."
	case errors.Is(err, service.ErrInvalidSnapshotKey):
		return "Unknown snapshot."
	case errors.Is(err, storage.ErrNotFound):
		return "Snapshot not found."
	default:
		return msgInternal
	}
}

// statusFor picks the API status code for err.
func statusFor(err error) int {
	var rejected *directory.RejectedError
	switch {
	case errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidSnapshotKey):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, service.ErrUserDeleted):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSnapshotsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, directory.ErrNetwork), errors.Is(err, directory.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.As(err, &rejected):
		// A 401 from the directory is about the directory token, not the
		// console session.
		switch {
		case rejected.Status == http.StatusUnauthorized:
			return http.StatusBadGateway
		case rejected.Status >= 400 && rejected.Status < 500:
			return rejected.Status
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}

// loginStatus is statusFor for login attempts, where any rejection by the
// directory means the credentials were refused.
func loginStatus(err error) int {
	var rejected *directory.RejectedError
	if errors.As(err, &rejected) && rejected.Status >= 400 && rejected.Status < 500 {
		return http.StatusUnauthorized
	}
	return statusFor(err)
}

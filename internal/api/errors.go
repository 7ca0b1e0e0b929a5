package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	// ErrUnauthorized is returned when the API rejects the bearer credential.
	ErrUnauthorized = errors.New("credential rejected")

	// ErrNetwork is returned when a request could not complete at all.
	ErrNetwork = errors.New("network failure")
)

// APIError represents a request the server answered but refused, carrying
// the server-supplied message for inline display.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d): %s", e.Status, http.StatusText(e.Status))
}

// Unwrap maps a 401 onto ErrUnauthorized so callers can use errors.Is
// without inspecting status codes.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedLogin is returned when the login response lacks a token or
// user id.
var ErrMalformedLogin = errors.New("login response missing token or userId")

// APIError is a non-2xx response from the budget API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string // from the response body's "message" field, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// StatusOf returns the HTTP status of an *APIError in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether the API rejected the credentials. Nothing
// reacts to it automatically; callers decide.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// MessageOr returns the server's error message when there is one, else
// fallback.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

package clients

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork covers transport failures, server errors and any status the
	// storefront API is not expected to return.
	ErrNetwork = errors.New("storefront api request failed")
	// ErrNotFound is returned for 404 responses
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned for 409 responses
	ErrConflict = errors.New("resource already exists")
	// ErrUnauthorized is returned for 401 and 403 responses. It also matches ErrNetwork.
	ErrUnauthorized = errors.New("not authorized")
)

// APIError describes a failed call to the storefront API
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string

	kind  error
	cause error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes the error kind, and the underlying cause when there is one
func (e *APIError) Unwrap() []error {
	errs := []error{e.kind}
	if e.kind == ErrUnauthorized {
		errs = append(errs, ErrNetwork)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// kindForStatus maps a non-2xx status code onto the error taxonomy
func kindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return ErrNetwork
	}
}

package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents an error response from the API. The server
// reports errors as RFC 7807 problem documents.
type APIError struct {
	StatusCode int    `json:"-"`
	Title      string `json:"title"`
	Detail     string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	if e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsNotFound returns true if the server reported 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict returns true if the server reported 409.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsGone returns true if the server reported 410.
func (e *APIError) IsGone() bool {
	return e.StatusCode == http.StatusGone
}

// IsUnavailable returns true if the server reported 503.
func (e *APIError) IsUnavailable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

// IsConfigurationError returns true if the server reported 422, which
// maps to an invalid repository definition in the configuration graph.
func (e *APIError) IsConfigurationError() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

func decodeError(status int, body []byte) error {
	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Title != "" {
		apiErr.StatusCode = status
		return &apiErr
	}
	return &APIError{
		StatusCode: status,
		Title:      string(body),
	}
}

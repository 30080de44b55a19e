package notion

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion API error (%d): %s - %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion API returned status %d", e.Status)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a Notion 404 (object_not_found).
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ErrInvalidID is returned for page, block or database IDs that are not UUIDs.
var ErrInvalidID = errors.New("invalid notion ID")

// Package server provides the HTTP REST API for the portfolio site.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/portfolio/internal/blog"
	"github.com/jonathan/portfolio/internal/notion"
)

// ErrNotFound indicates the requested resource does not exist
type ErrNotFound struct {
	Resource string
	Key      string
}

func (e *ErrNotFound) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Notion failures are reported as upstream errors.
func HTTPStatus(err error) int {
	var notFound *ErrNotFound
	var validation *ErrValidation
	var apiErr *notion.APIError

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.Is(err, blog.ErrInvalidSlug), errors.Is(err, notion.ErrInvalidID):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusTooManyRequests {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

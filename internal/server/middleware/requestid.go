// Package middleware provides HTTP middleware for request tracing and logging.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// requestIDKey is the context key for storing the request ID.
const requestIDKey ContextKey = "requestID"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client-supplied IDs
const maxRequestIDLength = 128

// RequestID creates middleware that tags each request with an ID. A
// reasonable incoming X-Request-ID is kept, otherwise a UUID is generated.
// The ID is echoed in the response header and stored in the request context.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if id == "" || len(id) > maxRequestIDLength {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) (string, error) {
	id, ok := r.Context().Value(requestIDKey).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("request ID not found in request context")
	}
	return id, nil
}

// RequestIDKey returns the context key for the request ID (for testing purposes).
func RequestIDKey() ContextKey {
	return requestIDKey
}

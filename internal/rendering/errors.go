// Package rendering turns post markdown into sanitized HTML for the API and
// styled text for the terminal.
package rendering

import "fmt"

// RenderError represents a failure converting markdown
type RenderError struct {
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Package validate rejects untrusted URLs and destination paths before they
// can reach the yt-dlp argument vector.
package validate

import "fmt"

// Error is a rejected input. Field names the offending parameter and Reason
// the rule that failed.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func reject(field, format string, args ...any) *Error {
	return &Error{Field: field, Reason: fmt.Sprintf(format, args...)}
}

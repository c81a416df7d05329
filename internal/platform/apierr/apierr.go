// Package apierr carries the HTTP status and machine-readable code that
// the chat and tools surfaces put in their error envelopes. Tool
// operations return these for caller faults (unknown session, bad
// base64, size mismatch) so the response layer and the HTTP gateway can
// round-trip them without string matching.
package apierr

import "fmt"

// Error wraps a cause with the status and code the envelope exposes.
// Codes are stable identifiers like "session_not_found"; the wrapped
// error keeps the detail for logs.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

package models

import (
	"fmt"
)

// FetchError is returned when the schedule feed is unreachable or malformed.
type FetchError struct {
	GroupCode int
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching schedule for group %d: %v", e.GroupCode, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// TokenError is returned when credentials could not be acquired or refreshed.
type TokenError struct {
	Email string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("acquiring token for %s: %v", e.Email, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// BackendError is a failed insert or delete of a single calendar event.
type BackendError struct {
	Op      string
	EventID string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s event %s: %v", e.Op, e.EventID, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ParseError is a source record whose fields violate the expected format.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AdapterError is a failed calendar listing/creation; it aborts the subject.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("calendar %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

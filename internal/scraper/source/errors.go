package source

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrLoginFormNotFound  = errors.New("login form not found")

	ErrParsingFailed = errors.New("failed to parse dashboard response")
	ErrTimeout       = errors.New("operation timed out")
	ErrFormat        = errors.New("malformed count")
)

// SourceError provides detailed error context
type SourceError struct {
	Source    string
	Domain    string
	Operation string
	Cause     error
	Details   string
}

func (e *SourceError) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("[%s] %s failed: %v - %s", e.Source, e.Operation, e.Cause, e.Details)
	}
	return fmt.Sprintf("[%s] %s %s failed: %v - %s", e.Source, e.Operation, e.Domain, e.Cause, e.Details)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

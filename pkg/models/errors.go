package models

import (
	"fmt"
	"strings"
)

// ParseError indicates that an uploaded file could not be read as a table.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %q: %v", e.FileName, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError indicates that required columns are missing from an
// otherwise readable file. Missing lists every absent column by name.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ExternalServiceError wraps a failure of the text-generation collaborator
// (network, auth, quota). It is always surfaced as a user-visible message
// and never touches session state.
type ExternalServiceError struct {
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

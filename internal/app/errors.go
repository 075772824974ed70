package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrNoOutput indicates a render without an output path.
	ErrNoOutput = errors.New("no output path")

	// ErrInvalidOffsets indicates a text selection outside the document or
	// with start not before end.
	ErrInvalidOffsets = errors.New("invalid offsets")

	// ErrNotVisible indicates a selection that covers no visible text.
	ErrNotVisible = errors.New("selection is not visible")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "load", "render", "save")
	Target string // Target of the operation, usually a file path
	Err    error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

package engine

import (
	"errors"
	"fmt"
)

// OpError reports an op that could not be applied or journaled. The
// document stays at the revision it had before the op.
type OpError struct {
	// DocumentID is empty for in-memory sessions.
	DocumentID string

	// Seq is the seq the op would have received.
	Seq int64

	Kind OpKind
	Err  error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("op %d (%s) on %s: %v", e.Seq, e.Kind, e.DocumentID, e.Err)
	}
	return fmt.Sprintf("op %d (%s): %v", e.Seq, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// ReplayError reports where a journal replay diverged from the stored
// history.
type ReplayError struct {
	Seq     int64
	Message string
}

// Error implements the error interface.
func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay diverged at seq %d: %s", e.Seq, e.Message)
}

// IsReplayDivergence reports whether err is a ReplayError.
// Uses errors.As to handle wrapped errors.
func IsReplayDivergence(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}

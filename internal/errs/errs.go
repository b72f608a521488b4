// Package errs holds the failure types shared by the correlation pipeline.
// Item-fatal failures (AlignmentError, MissingMarkerError) abort a single
// input; PreconditionError aborts the whole batch.
package errs

import (
	"errors"
	"fmt"
)

// AlignmentError reports that a volume could not be placed on another grid.
type AlignmentError struct {
	Source string
	Target string
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("cannot align %s onto %s: %s", nameOr(e.Source), nameOr(e.Target), e.Reason)
}

// ConsistencyError reports masks that were expected to be identical but are not.
// The caller keeps using Primary.
type ConsistencyError struct {
	Primary   string
	Divergent []string
	// Voxels counts differing voxels per divergent mask, in the order of Divergent.
	Voxels []int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("masks derived from %v do not match the mask from %s (differing voxels: %v)",
		e.Divergent, nameOr(e.Primary), e.Voxels)
}

// MissingMarkerError reports an identity marker that is absent from a path.
type MissingMarkerError struct {
	Path   string
	Level  string
	Marker string
}

func (e *MissingMarkerError) Error() string {
	return fmt.Sprintf("%s marker %q not found in %s", e.Level, e.Marker, e.Path)
}

// PreconditionError reports a batch that cannot produce a meaningful result.
type PreconditionError struct {
	Path   string
	Reason string
}

func (e *PreconditionError) Error() string {
	if e.Path == "" {
		return "precondition violated: " + e.Reason
	}
	return fmt.Sprintf("precondition violated at %s: %s", e.Path, e.Reason)
}

// DuplicateError reports a second value for an already recorded cell.
type DuplicateError struct {
	Key       string
	Reference string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate score for %s / %s", e.Key, e.Reference)
}

// IsPrecondition reports whether err (or anything it wraps) is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func nameOr(s string) string {
	if s == "" {
		return "<in-memory volume>"
	}
	return s
}

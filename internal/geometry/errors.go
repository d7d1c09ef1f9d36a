package geometry

import (
	"errors"
	"fmt"
)

var (
	// ErrNoObjects is returned when a geometry file yields no valid records.
	ErrNoObjects = errors.New("no valid geometry records")

	// ErrDuplicateObject is returned when two records share a name and index.
	ErrDuplicateObject = errors.New("duplicate geometry object")

	// ErrSelfParent is returned when a record names itself as its parent.
	ErrSelfParent = errors.New("geometry object is its own parent")

	// ErrParentCycle is returned when parent links form a loop.
	ErrParentCycle = errors.New("parent cycle in geometry tree")

	// ErrMultipleRoots is returned in strict mode when more than one object
	// has no resolvable parent.
	ErrMultipleRoots = errors.New("more than one top geometry object")

	// ErrObjectNotFound is returned by lookups of unknown objects.
	ErrObjectNotFound = errors.New("geometry object not found")

	// ErrNoSegment is returned when no pixel segment exists under an object.
	ErrNoSegment = errors.New("no pixel segment under geometry object")
)

// LineError describes a malformed line that was skipped during loading.
type LineError struct {
	Line   int    // 1-based line number
	Text   string // the offending line, trimmed
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

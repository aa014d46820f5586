package errors

import (
	"fmt"
)

// InvalidReducersError occurs when a non-positive reducer count is requested for a grouping stage
type InvalidReducersError struct{ Count int }

// Error returns a textual representation of this InvalidReducersError
func (e InvalidReducersError) Error() string {
	return fmt.Sprintf("Reducer count must be positive, got %d", e.Count)
}

// MissingKeyOrderingError occurs when a grouping or join stage is built without a key ordering
type MissingKeyOrderingError struct{}

// Error returns a textual representation of this MissingKeyOrderingError
func (e MissingKeyOrderingError) Error() string {
	return "Stage requires a key ordering"
}

// MissingSourceError occurs when a grouping or join stage is built without a source stream
type MissingSourceError struct{}

// Error returns a textual representation of this MissingSourceError
func (e MissingSourceError) Error() string {
	return "Stage requires a source stream"
}

// NilTransformError occurs when a nil per-key transform is supplied to a reduce step
type NilTransformError struct{}

// Error returns a textual representation of this NilTransformError
func (e NilTransformError) Error() string {
	return "Per-key transform must not be nil"
}

// NilJoinerError occurs when a nil join operation is supplied to a broadcast join
type NilJoinerError struct{}

// Error returns a textual representation of this NilJoinerError
func (e NilJoinerError) Error() string {
	return "Join operation must not be nil"
}

// AssertionViolatedError occurs when an internal invariant of the algebra or an
// engine is broken, and indicates a defect rather than a caller mistake. Stages
// must abort rather than produce partial output when one occurs.
type AssertionViolatedError struct{ Context string }

// Error returns a textual representation of this AssertionViolatedError
func (e AssertionViolatedError) Error() string {
	return fmt.Sprintf("Invariant violated in %s", e.Context)
}

// NoMoreValuesError occurs when Next is called on an exhausted Iterator
type NoMoreValuesError struct{}

// Error returns a textual representation of this NoMoreValuesError
func (e NoMoreValuesError) Error() string {
	return "No more values"
}

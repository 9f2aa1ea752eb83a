package dataflow

import "errors"

// AlreadyBoundError is returned by Bind when a DFV has already been bound
// to a value, and by BindUnique when the existing value differs from the
// one supplied (spec.md §7).
type AlreadyBoundError struct {
	// Existing is the value the slot was already bound to.
	Existing any
}

func (e *AlreadyBoundError) Error() string {
	return "dataflow: variable already bound"
}

// ErrTimeout is returned by GetValTimeout when the deadline elapses before
// a value becomes available.
var ErrTimeout = errors.New("dataflow: get timed out")

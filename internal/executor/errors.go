package executor

import (
	"errors"
	"fmt"
)

// ErrGraphBusy is returned by Run when the same graph object is already in
// flight. Re-submission is allowed only after the previous handle resolves.
var ErrGraphBusy = errors.New("graph already has a run in flight")

// ErrNilGraph is returned by Run for a nil graph.
var ErrNilGraph = errors.New("nil graph")

// TaskError records the failure of a plain callable (a returned error or a
// recovered panic) against the node that raised it. It never propagates
// synchronously to the submitting goroutine; it surfaces through the run
// handle.
type TaskError struct {
	Node string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Node, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// SkipError marks a node that never ran because an upstream node failed.
type SkipError struct {
	Node     string
	Upstream string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("task %q skipped: upstream failure of %q", e.Node, e.Upstream)
}

package device

import (
	"errors"
	"fmt"
)

// ErrStreamClosed is returned by Launch and Synchronize after Close.
var ErrStreamClosed = errors.New("device stream is closed")

// CompileError reports that a sub-graph description could not be turned
// into an executable graph: malformed operation parameters, a cycle among
// operations, or an edge crossing sub-graph boundaries.
type CompileError struct {
	// Op names the offending operation, when one is identifiable.
	Op     string
	Reason string
}

func (e *CompileError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("device compile error: %s", e.Reason)
	}
	return fmt.Sprintf("device compile error: op %q: %s", e.Op, e.Reason)
}

// LaunchError reports an asynchronous execution failure of a compiled
// graph. It is detected on the stream and surfaced at the next
// synchronization point (the launch completion callback).
type LaunchError struct {
	Op  string
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("device launch error: op %q: %v", e.Op, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

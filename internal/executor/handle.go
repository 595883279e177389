package executor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handle represents one submission of a dependency graph. It resolves when
// every node is accounted for (completed, failed, or skipped); after that
// it is immutable. A second submission of the same graph yields a new handle.
type Handle struct {
	id    string
	total int

	completed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64

	mu         sync.Mutex
	firstErr   error
	failedNode string

	done chan struct{}
}

func newHandle(total int) *Handle {
	return &Handle{
		id:    uuid.NewString(),
		total: total,
		done:  make(chan struct{}),
	}
}

// newResolvedHandle covers the empty-graph submission, which resolves
// immediately.
func newResolvedHandle() *Handle {
	h := newHandle(0)
	close(h.done)
	return h
}

// ID returns the submission's unique identifier.
func (h *Handle) ID() string { return h.id }

// Total returns the number of nodes in the submitted graph.
func (h *Handle) Total() int { return h.total }

// Completed returns the number of nodes that completed successfully so far.
func (h *Handle) Completed() int { return int(h.completed.Load()) }

// Failed returns the number of nodes that failed or were skipped so far.
func (h *Handle) Failed() int { return int(h.failed.Load() + h.skipped.Load()) }

// Done returns a channel closed when the run resolves.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Ready reports without blocking whether the run has resolved.
func (h *Handle) Ready() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Err returns the first error recorded across all nodes, host and device.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.firstErr
}

// FailedNode returns the name of the node that recorded the first error.
func (h *Handle) FailedNode() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failedNode
}

// Wait blocks, without busy-polling, until the run resolves or ctx is
// done. On resolution it returns the first recorded error, which callers
// must inspect to distinguish full success from partial-completion failure.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) recordCompletion() {
	h.completed.Add(1)
}

func (h *Handle) recordFailure(node string, err error) {
	h.failed.Add(1)
	h.mu.Lock()
	if h.firstErr == nil {
		h.firstErr = err
		h.failedNode = node
	}
	h.mu.Unlock()
}

// recordSkip counts a node that never ran. A skip is a symptom, not a
// cause, so it never becomes the handle's first error.
func (h *Handle) recordSkip() {
	h.skipped.Add(1)
}

// recordAbort notes why scheduling stopped when no node failure was
// recorded, so an externally cancelled run resolves with that error
// instead of looking like a full success.
func (h *Handle) recordAbort(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	if h.firstErr == nil {
		h.firstErr = err
	}
	h.mu.Unlock()
}

func (h *Handle) resolve() {
	close(h.done)
}

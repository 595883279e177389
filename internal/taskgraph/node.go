package taskgraph

import (
	"context"
	"sync/atomic"

	"github.com/vk/taskgridgo/internal/device"
)

// TaskFunc is the callable form of a plain task node.
type TaskFunc func(ctx context.Context) error

// WorkKind is the closed set of work variants a node can hold. Assigning a
// new variant overwrites the previous one, it never appends.
type WorkKind int

const (
	// WorkEmpty is a placeholder node with no work; it completes immediately
	// and exists only to shape the graph.
	WorkEmpty WorkKind = iota
	// WorkTask is a plain callable executed on a worker thread.
	WorkTask
	// WorkDevice is a device-graph builder callable. The builder is invoked
	// once per run to describe a device sub-graph, which is compiled and
	// launched as a single unit on the device stream.
	WorkDevice
)

// State is the execution state of a node within one submission.
type State int32

const (
	// Pending means the node still has unmet predecessors.
	Pending State = iota
	// Ready means every predecessor completed and the node is queued.
	Ready
	// Running means a worker has claimed the node.
	Running
	// Launched applies to device nodes only: the builder finished on the
	// host and the compiled graph is executing on the device stream.
	Launched
	// Completed means the node finished successfully.
	Completed
	// Failed means the node's callable, compile, or launch failed.
	Failed
	// Skipped means the node never ran because an upstream node failed.
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Launched:
		return "launched"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Node is a single vertex in a dependency graph, representing one unit of
// work. A node belongs to exactly one Graph for its entire lifetime and is
// referenced through the pointer handed out by that graph.
type Node struct {
	graph *Graph
	index int

	name  string
	kind  WorkKind
	task  TaskFunc
	build device.BuilderFunc

	preds []*Node
	succs []*Node

	// pending counts unmet predecessors; reset to the structural
	// in-degree at each submission.
	pending atomic.Int32
	// state is the node's current execution state, managed atomically.
	state atomic.Int32
	// err records the failure of this node's execution, if any. Written
	// once by the executor before the node's completion is published.
	err error
}

// Name returns the node's diagnostic name.
func (n *Node) Name() string { return n.name }

// SetName replaces the node's diagnostic name.
func (n *Node) SetName(name string) { n.name = name }

// Kind returns the node's current work variant.
func (n *Node) Kind() WorkKind { return n.kind }

// Task returns the plain callable, or nil for other work variants.
func (n *Node) Task() TaskFunc { return n.task }

// Builder returns the device-graph builder, or nil for other work variants.
func (n *Node) Builder() device.BuilderFunc { return n.build }

// destroyed reports whether the node's lifetime has ended (its owning
// graph was cleared). Mutating entry points check this before touching the
// graph so a destroyed node yields a *StructureError instead of a crash.
func (n *Node) destroyed() error {
	if n.graph == nil {
		return &StructureError{Kind: KindNilNode, From: n.name, To: n.name}
	}
	return nil
}

// SetTask overwrites the node's work with a plain callable. It fails with
// ErrGraphRunning once the owning graph has started running.
func (n *Node) SetTask(fn TaskFunc) error {
	if err := n.destroyed(); err != nil {
		return err
	}
	if n.graph.running.Load() {
		return ErrGraphRunning
	}
	n.kind = WorkTask
	n.task = fn
	n.build = nil
	return nil
}

// SetDeviceTask overwrites the node's work with a device-graph builder.
func (n *Node) SetDeviceTask(build device.BuilderFunc) error {
	if err := n.destroyed(); err != nil {
		return err
	}
	if n.graph.running.Load() {
		return ErrGraphRunning
	}
	n.kind = WorkDevice
	n.task = nil
	n.build = build
	return nil
}

// SetEmpty clears the node's work, turning it back into a placeholder.
func (n *Node) SetEmpty() error {
	if err := n.destroyed(); err != nil {
		return err
	}
	if n.graph.running.Load() {
		return ErrGraphRunning
	}
	n.kind = WorkEmpty
	n.task = nil
	n.build = nil
	return nil
}

// Precede adds edges from this node to each of the given nodes. It stops at
// the first edge that fails validation; edges added before the failure stay.
func (n *Node) Precede(succs ...*Node) error {
	if err := n.destroyed(); err != nil {
		return err
	}
	for _, s := range succs {
		if err := n.graph.AddEdge(n, s); err != nil {
			return err
		}
	}
	return nil
}

// Succeed adds edges from each of the given nodes to this node.
func (n *Node) Succeed(preds ...*Node) error {
	if err := n.destroyed(); err != nil {
		return err
	}
	for _, p := range preds {
		if err := n.graph.AddEdge(p, n); err != nil {
			return err
		}
	}
	return nil
}

// NumPredecessors returns the node's structural in-degree.
func (n *Node) NumPredecessors() int { return len(n.preds) }

// NumSuccessors returns the node's structural out-degree.
func (n *Node) NumSuccessors() int { return len(n.succs) }

// Successors returns the node's successor list. The returned slice is the
// graph's own bookkeeping and must not be mutated.
func (n *Node) Successors() []*Node { return n.succs }

// Predecessors returns the node's predecessor list, unmodifiable.
func (n *Node) Predecessors() []*Node { return n.preds }

// State atomically retrieves the node's execution state.
func (n *Node) State() State { return State(n.state.Load()) }

// SetState atomically sets the node's execution state.
func (n *Node) SetState(s State) { n.state.Store(int32(s)) }

// CasState atomically transitions the state from old to new, reporting
// whether the transition happened. The executor uses it to guarantee a node
// is claimed, completed, or skipped exactly once per submission.
func (n *Node) CasState(old, new State) bool {
	return n.state.CompareAndSwap(int32(old), int32(new))
}

// Pending atomically returns the current number of unmet predecessors.
func (n *Node) Pending() int32 { return n.pending.Load() }

// DecrementPending atomically decrements the pending-predecessor counter
// and returns the new value.
func (n *Node) DecrementPending() int32 { return n.pending.Add(-1) }

// Err returns the error recorded against this node during the last run.
func (n *Node) Err() error { return n.err }

// SetErr records the node's execution error.
func (n *Node) SetErr(err error) { n.err = err }

// resetForRun restores the node's runtime state for a fresh submission.
func (n *Node) resetForRun() {
	n.pending.Store(int32(len(n.preds)))
	n.state.Store(int32(Pending))
	n.err = nil
}

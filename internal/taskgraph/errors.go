package taskgraph

import (
	"errors"
	"fmt"
)

// ErrGraphRunning is returned by structural mutations attempted while a run
// on the same graph is in flight.
var ErrGraphRunning = errors.New("graph is currently running")

// StructureKind classifies the structural violations detected at edge
// creation time.
type StructureKind int

const (
	// KindCycle means the edge would close a cycle.
	KindCycle StructureKind = iota
	// KindCrossGraph means the two nodes belong to different graphs.
	KindCrossGraph
	// KindNilNode means an endpoint is nil or no longer owned by a graph.
	KindNilNode
	// KindSelfEdge means both endpoints are the same node.
	KindSelfEdge
	// KindDuplicateEdge means the edge already exists.
	KindDuplicateEdge
)

func (k StructureKind) String() string {
	switch k {
	case KindCycle:
		return "cycle"
	case KindCrossGraph:
		return "cross-graph"
	case KindNilNode:
		return "nil-node"
	case KindSelfEdge:
		return "self-edge"
	case KindDuplicateEdge:
		return "duplicate-edge"
	default:
		return "unknown"
	}
}

// StructureError reports a rejected structural mutation. The graph is left
// exactly as it was before the failing call.
type StructureError struct {
	Kind StructureKind
	From string
	To   string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("graph structure error (%s): %q -> %q", e.Kind, e.From, e.To)
}

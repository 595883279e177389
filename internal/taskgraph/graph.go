package taskgraph

import (
	"sync/atomic"

	"github.com/vk/taskgridgo/internal/device"
)

// Graph is an owning collection of task nodes forming a DAG via precedence
// edges. It is the unit of submission to an executor.
type Graph struct {
	// nodes is the arena that owns every node created through this graph.
	// Nodes are referenced by the stable pointers handed out at creation.
	nodes []*Node

	// running is set by the executor for the duration of a submission.
	running atomic.Bool
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{}
}

// NewNode adds an empty placeholder node with the given diagnostic name.
// Work can be assigned later with SetTask or SetDeviceTask.
func (g *Graph) NewNode(name string) *Node {
	n := &Node{graph: g, index: len(g.nodes), name: name, kind: WorkEmpty}
	g.nodes = append(g.nodes, n)
	return n
}

// NewTask adds a node bound to a plain callable.
func (g *Graph) NewTask(name string, fn TaskFunc) *Node {
	n := g.NewNode(name)
	n.kind = WorkTask
	n.task = fn
	return n
}

// NewDeviceTask adds a node bound to a device-graph builder callable.
func (g *Graph) NewDeviceTask(name string, build device.BuilderFunc) *Node {
	n := g.NewNode(name)
	n.kind = WorkDevice
	n.build = build
	return n
}

// AddEdge creates a precedence edge: from must complete before to starts.
// The edge is validated synchronously; on any violation the graph is left
// structurally unchanged and a *StructureError is returned.
func (g *Graph) AddEdge(from, to *Node) error {
	if g.running.Load() {
		return ErrGraphRunning
	}
	if from == nil || to == nil || from.graph == nil || to.graph == nil {
		return &StructureError{Kind: KindNilNode, From: nodeName(from), To: nodeName(to)}
	}
	if from.graph != g || to.graph != g {
		return &StructureError{Kind: KindCrossGraph, From: from.name, To: to.name}
	}
	if from == to {
		return &StructureError{Kind: KindSelfEdge, From: from.name, To: to.name}
	}
	for _, s := range from.succs {
		if s == to {
			return &StructureError{Kind: KindDuplicateEdge, From: from.name, To: to.name}
		}
	}
	if g.reaches(to, from) {
		return &StructureError{Kind: KindCycle, From: from.name, To: to.name}
	}

	from.succs = append(from.succs, to)
	to.preds = append(to.preds, from)
	return nil
}

// reaches reports whether dst is reachable from src along existing edges.
// Depth-first over successor lists; used to reject cycle-closing edges
// before they are inserted.
func (g *Graph) reaches(src, dst *Node) bool {
	if src == dst {
		return true
	}
	visited := make(map[*Node]bool, len(g.nodes))
	stack := []*Node{src}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n] {
			continue
		}
		visited[n] = true
		for _, s := range n.succs {
			if s == dst {
				return true
			}
			if !visited[s] {
				stack = append(stack, s)
			}
		}
	}
	return false
}

// Len returns the number of nodes owned by the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns a snapshot of the graph's nodes in creation order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Clear drops every node from the graph, ending their lifetime. It fails
// with ErrGraphRunning while a submission is in flight.
func (g *Graph) Clear() error {
	if g.running.Load() {
		return ErrGraphRunning
	}
	for _, n := range g.nodes {
		n.graph = nil
	}
	g.nodes = nil
	return nil
}

// BeginRun marks the graph as in flight and resets every node's pending
// counter to its structural in-degree. It returns false if a run on this
// graph is already in progress.
func (g *Graph) BeginRun() bool {
	if !g.running.CompareAndSwap(false, true) {
		return false
	}
	for _, n := range g.nodes {
		n.resetForRun()
	}
	return true
}

// EndRun clears the in-flight mark set by BeginRun.
func (g *Graph) EndRun() {
	g.running.Store(false)
}

func nodeName(n *Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.name
}

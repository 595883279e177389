package device

import (
	"hash/fnv"
)

// BuilderFunc is the callable form of a device task node. The engine
// invokes it exactly once per submission, passing the builder on which the
// sub-graph's operations and precedence edges are declared.
type BuilderFunc func(b *GraphBuilder) error

// GraphBuilder collects the structural description of one device sub-graph
// during a single builder invocation. The description is ephemeral: the
// compiler consumes it and either produces a fresh executable graph or
// updates a cached one in place.
type GraphBuilder struct {
	ops []*Op
}

// NewGraphBuilder returns an empty sub-graph description.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{}
}

// Kernel declares a kernel launch operation. Parameter validation happens
// at compile time, not here.
func (b *GraphBuilder) Kernel(name string, cfg LaunchConfig, fn KernelFunc, args ...any) *Op {
	op := &Op{
		builder: b,
		index:   len(b.ops),
		name:    name,
		kind:    opKernel,
		cfg:     cfg,
		fn:      fn,
		args:    args,
	}
	b.ops = append(b.ops, op)
	return op
}

// Memcpy declares a memory transfer of count elements from src to dst.
// Both must be slices of the same element type; ownership stays with the
// caller for the lifetime of the compiled graph.
func (b *GraphBuilder) Memcpy(name string, dst, src any, count int, dir CopyDirection) *Op {
	op := &Op{
		builder: b,
		index:   len(b.ops),
		name:    name,
		kind:    opCopy,
		dst:     dst,
		src:     src,
		count:   count,
		dir:     dir,
	}
	b.ops = append(b.ops, op)
	return op
}

// AddEdge creates a precedence edge between two operations of this
// sub-graph. Edges crossing sub-graph boundaries are not permitted.
func (b *GraphBuilder) AddEdge(from, to *Op) error {
	if from == nil || to == nil {
		return &CompileError{Reason: "edge references a nil operation"}
	}
	if from.builder != b || to.builder != b {
		return &CompileError{Op: from.name, Reason: "edge crosses sub-graph boundaries"}
	}
	if from == to {
		return &CompileError{Op: from.name, Reason: "self-referential edge"}
	}
	for _, s := range from.succs {
		if s == to.index {
			return &CompileError{Op: from.name, Reason: "duplicate edge to " + to.name}
		}
	}
	from.succs = append(from.succs, to.index)
	to.preds = append(to.preds, from.index)
	return nil
}

// Len returns the number of declared operations.
func (b *GraphBuilder) Len() int { return len(b.ops) }

// Signature derives the topology cache key: operation count, operation
// kinds in creation order, and the edge structure. Parameter values are
// deliberately excluded so that parameter-only changes hash identically.
func (b *GraphBuilder) Signature() Signature {
	h := fnv.New64a()
	buf := make([]byte, 0, 8)
	writeInt := func(v int) {
		buf = buf[:0]
		for i := 0; i < 8; i++ {
			buf = append(buf, byte(v>>(8*i)))
		}
		h.Write(buf)
	}
	writeInt(len(b.ops))
	for _, op := range b.ops {
		h.Write([]byte{byte(op.kind)})
		writeInt(len(op.succs))
		for _, s := range op.succs {
			writeInt(s)
		}
	}
	return Signature(h.Sum64())
}

// Signature identifies a sub-graph topology for compiled-graph reuse.
type Signature uint64

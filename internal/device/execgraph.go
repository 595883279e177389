package device

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ExecGraph is the native executable artifact produced from a sub-graph
// description. Its topology (launch order, in-degrees, successor lists) is
// immutable after compilation; only the per-operation parameter slots are
// replaced by the compiler's update path.
type ExecGraph struct {
	sig   Signature
	ops   []execOp
	succs [][]int
	indeg []int
}

// execOp is one operation's mutable parameter slot inside a compiled graph.
type execOp struct {
	name string
	kind opKind

	cfg  LaunchConfig
	fn   KernelFunc
	args []any

	dst   any
	src   any
	count int
	dir   CopyDirection
}

// Signature returns the topology signature the graph was compiled under.
func (g *ExecGraph) Signature() Signature { return g.sig }

// Len returns the number of operations in the compiled graph.
func (g *ExecGraph) Len() int { return len(g.ops) }

// compile translates a sub-graph description into an executable graph. The
// description is validated in full: malformed operation parameters and
// cycles among operations are compile errors.
func compile(b *GraphBuilder) (*ExecGraph, error) {
	g := &ExecGraph{
		sig:   b.Signature(),
		ops:   make([]execOp, len(b.ops)),
		succs: make([][]int, len(b.ops)),
		indeg: make([]int, len(b.ops)),
	}
	for i, op := range b.ops {
		if err := validateOp(op); err != nil {
			return nil, err
		}
		g.ops[i] = paramSlot(op)
		g.succs[i] = append([]int(nil), op.succs...)
		g.indeg[i] = len(op.preds)
	}
	if err := checkAcyclic(g); err != nil {
		return nil, err
	}
	return g, nil
}

// update swaps the parameter slots of an already-compiled graph. The
// caller has established that the topology signatures match, so only the
// per-operation parameters need revalidation.
func (g *ExecGraph) update(b *GraphBuilder) error {
	if len(b.ops) != len(g.ops) {
		return &CompileError{Reason: fmt.Sprintf("update with %d ops against compiled graph of %d", len(b.ops), len(g.ops))}
	}
	for _, op := range b.ops {
		if err := validateOp(op); err != nil {
			return err
		}
	}
	for i, op := range b.ops {
		g.ops[i] = paramSlot(op)
	}
	return nil
}

func paramSlot(op *Op) execOp {
	return execOp{
		name:  op.name,
		kind:  op.kind,
		cfg:   op.cfg,
		fn:    op.fn,
		args:  op.args,
		dst:   op.dst,
		src:   op.src,
		count: op.count,
		dir:   op.dir,
	}
}

func validateOp(op *Op) error {
	switch op.kind {
	case opKernel:
		if op.fn == nil {
			return &CompileError{Op: op.name, Reason: "kernel function is nil"}
		}
	case opCopy:
		dst := reflect.ValueOf(op.dst)
		src := reflect.ValueOf(op.src)
		if dst.Kind() != reflect.Slice || src.Kind() != reflect.Slice {
			return &CompileError{Op: op.name, Reason: "copy endpoints must be slices"}
		}
		if dst.Type().Elem() != src.Type().Elem() {
			return &CompileError{Op: op.name, Reason: fmt.Sprintf("element type mismatch: %s vs %s", dst.Type().Elem(), src.Type().Elem())}
		}
		if op.count < 0 {
			return &CompileError{Op: op.name, Reason: "negative element count"}
		}
		if op.count > src.Len() || op.count > dst.Len() {
			return &CompileError{Op: op.name, Reason: fmt.Sprintf("element count %d exceeds buffer length (dst %d, src %d)", op.count, dst.Len(), src.Len())}
		}
	}
	return nil
}

// checkAcyclic runs Kahn's algorithm over the compiled topology.
func checkAcyclic(g *ExecGraph) error {
	indeg := append([]int(nil), g.indeg...)
	queue := make([]int, 0, len(indeg))
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	processed := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		processed++
		for _, s := range g.succs[i] {
			indeg[s]--
			if indeg[s] == 0 {
				queue = append(queue, s)
			}
		}
	}
	if processed != len(g.ops) {
		return &CompileError{Reason: "cycle among device operations"}
	}
	return nil
}

// execute runs every operation of the graph, honoring the declared edges.
// Independent operations run concurrently so the graph-level parallelism
// declared by the edges is actually exploited. The first operation error
// stops new operations from starting; in-flight ones finish.
func (g *ExecGraph) execute(ctx context.Context) error {
	pending := make([]atomic.Int32, len(g.ops))
	for i := range pending {
		pending[i].Store(int32(g.indeg[i]))
	}

	eg, opCtx := errgroup.WithContext(ctx)
	var run func(i int) func() error
	run = func(i int) func() error {
		return func() error {
			if opCtx.Err() != nil {
				return nil
			}
			if err := g.runOp(opCtx, i); err != nil {
				return err
			}
			for _, s := range g.succs[i] {
				if pending[s].Add(-1) == 0 {
					eg.Go(run(s))
				}
			}
			return nil
		}
	}
	for i := range g.ops {
		if g.indeg[i] == 0 {
			eg.Go(run(i))
		}
	}
	return eg.Wait()
}

// runOp executes a single operation, converting panics and returned errors
// into a *LaunchError naming the operation.
func (g *ExecGraph) runOp(ctx context.Context, i int) (err error) {
	op := &g.ops[i]
	defer func() {
		if r := recover(); r != nil {
			err = &LaunchError{Op: op.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch op.kind {
	case opKernel:
		if kerr := op.fn(ctx, op.cfg, op.args); kerr != nil {
			return &LaunchError{Op: op.name, Err: kerr}
		}
	case opCopy:
		dst := reflect.ValueOf(op.dst).Slice(0, op.count)
		src := reflect.ValueOf(op.src).Slice(0, op.count)
		reflect.Copy(dst, src)
	}
	return nil
}

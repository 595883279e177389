package executor

import (
	"context"
	"runtime"
	"sync"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/device"
	"github.com/vk/taskgridgo/internal/metrics"
	"github.com/vk/taskgridgo/internal/taskgraph"
)

// Executor owns a worker pool configuration, a device stream, and the
// graph compiler. It is an explicit value with explicit construction and
// destruction; there is no process-wide scheduler.
type Executor struct {
	workers    int
	stream     *device.Stream
	ownsStream bool
	compiler   *device.Compiler
	metrics    *metrics.Metrics
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the worker pool size. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithStream makes the executor launch device graphs on s instead of a
// stream of its own. The caller keeps ownership of s.
func WithStream(s *device.Stream) Option {
	return func(e *Executor) {
		e.stream = s
		e.ownsStream = false
	}
}

// WithCompiler replaces the executor's graph compiler, letting several
// executors share one compiled-graph cache.
func WithCompiler(c *device.Compiler) Option {
	return func(e *Executor) {
		e.compiler = c
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New creates an executor. The default worker count is the available
// hardware concurrency; a device stream is created unless one is injected.
func New(opts ...Option) *Executor {
	e := &Executor{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(e)
	}
	if e.stream == nil {
		e.stream = device.NewStream()
		e.ownsStream = true
	}
	if e.compiler == nil {
		e.compiler = device.NewCompiler(e.metrics)
	}
	return e
}

// Compiler returns the executor's graph compiler, exposing the compile and
// cache-hit counts.
func (e *Executor) Compiler() *device.Compiler { return e.compiler }

// Close releases the executor's device stream if it owns one, draining any
// outstanding launches first.
func (e *Executor) Close() {
	if e.ownsStream {
		e.stream.Close()
	}
}

// Run submits a graph for execution and returns its run handle. It fails
// with ErrGraphBusy if the same graph object is already in flight. Every
// node's pending-predecessor counter is reset to its structural in-degree,
// so re-submitting a graph re-executes every node exactly once more.
func (e *Executor) Run(ctx context.Context, g *taskgraph.Graph) (*Handle, error) {
	logger := ctxlog.FromContext(ctx)
	if g == nil {
		return nil, ErrNilGraph
	}
	if g.Len() == 0 {
		logger.Warn("No nodes found in graph, execution not required.")
		return newResolvedHandle(), nil
	}
	if !g.BeginRun() {
		return nil, ErrGraphBusy
	}
	e.metrics.IncRuns()

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		exec:   e,
		graph:  g,
		handle: newHandle(g.Len()),
		ready:  make(chan *taskgraph.Node, g.Len()),
		ctx:    runCtx,
		cancel: cancel,
	}

	logger.Debug("Initializing run, seeding root nodes.", "runID", r.handle.id)
	roots := 0
	for _, n := range g.Nodes() {
		if n.Pending() == 0 {
			n.SetState(taskgraph.Ready)
			r.ready <- n
			roots++
		}
	}
	logger.Debug("Root nodes seeded.", "count", roots)

	r.wg.Add(g.Len())
	for i := 0; i < e.workers; i++ {
		go r.worker(runCtx, i)
	}

	go func() {
		r.wg.Wait()
		cancel()
		g.EndRun()
		close(r.ready)
		r.handle.resolve()
		logger.Debug("Run resolved.",
			"runID", r.handle.id,
			"completed", r.handle.Completed(),
			"failed", r.handle.Failed(),
		)
	}()

	return r.handle, nil
}

// run is the per-submission state shared by the workers and the device
// completion callbacks.
type run struct {
	exec   *Executor
	graph  *taskgraph.Graph
	handle *Handle
	ready  chan *taskgraph.Node
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

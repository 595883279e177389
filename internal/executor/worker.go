package executor

import (
	"context"
	"fmt"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/device"
	"github.com/vk/taskgridgo/internal/taskgraph"
)

// worker is the core processing loop for a single concurrent worker.
func (r *run) worker(ctx context.Context, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range r.ready {
		workerLogger := logger.With("workerID", workerID, "node", n.Name())

		// After a fatal error no new node transitions to Running.
		if ctx.Err() != nil {
			r.skipNode(ctx, n, "")
			continue
		}

		workerLogger.Debug("Worker picked up node for execution.")
		n.SetState(taskgraph.Running)

		switch n.Kind() {
		case taskgraph.WorkEmpty:
			r.complete(ctx, n, nil)
		case taskgraph.WorkTask:
			err := callTask(ctx, n.Task())
			if err != nil {
				err = &TaskError{Node: n.Name(), Err: err}
			}
			r.complete(ctx, n, err)
		case taskgraph.WorkDevice:
			r.launchDevice(ctx, n)
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// callTask invokes a plain callable, converting a panic into an error so a
// misbehaving task cannot take down the worker.
func callTask(ctx context.Context, fn taskgraph.TaskFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// launchDevice handles a device-graph node: invoke the builder exactly
// once, compile or update through the cache, and launch asynchronously.
// The worker does not block on device completion; the stream's callback
// finishes the node so the worker can return to the pool immediately.
func (r *run) launchDevice(ctx context.Context, n *taskgraph.Node) {
	logger := ctxlog.FromContext(ctx).With("node", n.Name())

	b := device.NewGraphBuilder()
	if err := callBuilder(b, n.Builder()); err != nil {
		r.complete(ctx, n, &TaskError{Node: n.Name(), Err: err})
		return
	}

	g, err := r.exec.compiler.Build(n, b)
	if err != nil {
		logger.Error("Device sub-graph compilation failed.", "error", err)
		r.complete(ctx, n, err)
		return
	}

	n.SetState(taskgraph.Launched)
	r.exec.metrics.IncDeviceLaunches()
	logger.Debug("Launching compiled device graph.", "ops", g.Len())

	err = r.exec.stream.Launch(g, func(devErr error) {
		r.complete(ctx, n, devErr)
	})
	if err != nil {
		r.complete(ctx, n, err)
	}
}

// callBuilder runs the device-graph builder callable with panic recovery.
func callBuilder(b *device.GraphBuilder, build device.BuilderFunc) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	if build == nil {
		return nil
	}
	return build(b)
}

// complete finishes a node, successfully or not, and unlocks dependents.
// It runs on a worker for host nodes and on the stream goroutine for
// device nodes.
func (r *run) complete(ctx context.Context, n *taskgraph.Node, err error) {
	logger := ctxlog.FromContext(ctx).With("node", n.Name())

	if err != nil {
		logger.Error("Node execution failed.", "error", err)
		n.SetErr(err)
		n.SetState(taskgraph.Failed)
		r.handle.recordFailure(n.Name(), err)
		r.exec.metrics.IncNodesFailed()
		r.cancel()
		r.skipDependents(ctx, n)
		r.wg.Done()
		return
	}

	logger.Debug("Node execution succeeded.")
	n.SetState(taskgraph.Completed)
	r.handle.recordCompletion()
	r.exec.metrics.IncNodesCompleted()

	for _, dep := range n.Successors() {
		if dep.DecrementPending() == 0 && dep.CasState(taskgraph.Pending, taskgraph.Ready) {
			logger.Debug("Unlocking dependent node.", "dependent", dep.Name())
			r.ready <- dep
		}
	}
	r.wg.Done()
}

// skipDependents transitively marks every downstream node as skipped. The
// Pending->Skipped transition is a CAS, so each node is accounted exactly
// once even when several upstream failures race.
func (r *run) skipDependents(ctx context.Context, n *taskgraph.Node) {
	for _, dep := range n.Successors() {
		if dep.CasState(taskgraph.Pending, taskgraph.Skipped) {
			ctxlog.FromContext(ctx).Warn("Skipping dependent node due to upstream failure.",
				"node", dep.Name(), "upstream", n.Name())
			dep.SetErr(&SkipError{Node: dep.Name(), Upstream: n.Name()})
			r.handle.recordSkip()
			r.exec.metrics.IncNodesFailed()
			r.wg.Done()
			r.skipDependents(ctx, dep)
		}
	}
}

// skipNode accounts a node that was already queued when the run aborted.
// If no node failure caused the abort, the submission context was cancelled
// from outside; its error becomes the handle's first error so the run does
// not resolve as a success.
func (r *run) skipNode(ctx context.Context, n *taskgraph.Node, upstream string) {
	if n.CasState(taskgraph.Ready, taskgraph.Skipped) {
		ctxlog.FromContext(ctx).Warn("Run aborted, skipping queued node.", "node", n.Name())
		n.SetErr(&SkipError{Node: n.Name(), Upstream: upstream})
		r.handle.recordSkip()
		r.handle.recordAbort(ctx.Err())
		r.exec.metrics.IncNodesFailed()
		r.wg.Done()
		r.skipDependents(ctx, n)
	}
}

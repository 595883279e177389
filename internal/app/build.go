package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/hclcfg"
	"github.com/vk/taskgridgo/internal/registry"
	"github.com/vk/taskgridgo/internal/taskgraph"
)

// buildGraph translates a loaded pipeline into an executable task graph.
// Every task's runner is resolved against the registry and its body is
// decoded into the runner's input struct up front, so a malformed pipeline
// fails before anything runs.
func buildGraph(ctx context.Context, pipeline *config.Pipeline, reg *registry.Registry) (*taskgraph.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	g := taskgraph.New()
	nodes := make(map[string]*taskgraph.Node, len(pipeline.Tasks))
	evalCtx := hclcfg.EvalContext()

	for _, task := range pipeline.Tasks {
		runner, err := reg.Runner(task.Runner)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Name, err)
		}

		input := runner.NewInput()
		if task.Body != nil {
			if diags := gohcl.DecodeBody(task.Body, evalCtx, input); diags.HasErrors() {
				return nil, fmt.Errorf("task %q: failed to decode arguments: %s", task.Name, diags.Error())
			}
		}

		var node *taskgraph.Node
		if runner.BuildDevice != nil {
			node = g.NewDeviceTask(task.Name, runner.BuildDevice(input))
		} else {
			run := runner.Run
			node = g.NewTask(task.Name, func(ctx context.Context) error {
				return run(ctx, input)
			})
		}
		nodes[task.Name] = node
	}

	for _, task := range pipeline.Tasks {
		to := nodes[task.Name]
		for _, dep := range task.DependsOn {
			from, ok := nodes[dep]
			if !ok {
				return nil, fmt.Errorf("task %q depends on unknown task %q", task.Name, dep)
			}
			if err := g.AddEdge(from, to); err != nil {
				return nil, fmt.Errorf("task %q: invalid dependency on %q: %w", task.Name, dep, err)
			}
		}
	}

	logger.Debug("Task graph built.", "nodes", g.Len())
	return g, nil
}

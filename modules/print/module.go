// Package print provides the 'print' runner, which writes its message to
// the log. Useful as a pipeline smoke test and as a join point.
package print

import (
	"context"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print runner.
type Input struct {
	Message string `hcl:"message,optional"`
}

// OnRunPrint is the handler for the 'print' runner.
func OnRunPrint(ctx context.Context, input *Input) error {
	logger := ctxlog.FromContext(ctx)
	if input.Message == "" {
		logger.Info("(empty message)")
		return nil
	}
	logger.Info(input.Message)
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("print", &registry.Runner{
		NewInput: func() any { return new(Input) },
		Run: func(ctx context.Context, input any) error {
			return OnRunPrint(ctx, input.(*Input))
		},
	})
}

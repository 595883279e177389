// Package sleep provides the 'sleep' runner, which pauses for a duration.
package sleep

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sleep runner.
type Input struct {
	// Duration accepts any string time.ParseDuration understands, e.g. "250ms".
	Duration string `hcl:"duration"`
}

// OnRunSleep is the handler for the 'sleep' runner. It honors context
// cancellation so a failing sibling task does not leave it lingering.
func OnRunSleep(ctx context.Context, input *Input) error {
	d, err := time.ParseDuration(input.Duration)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", input.Duration, err)
	}

	ctxlog.FromContext(ctx).Debug("Sleeping.", "duration", d)
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("sleep", &registry.Runner{
		NewInput: func() any { return new(Input) },
		Run: func(ctx context.Context, input any) error {
			return OnRunSleep(ctx, input.(*Input))
		},
	})
}

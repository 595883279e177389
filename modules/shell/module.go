// Package shell provides the 'shell' runner, which executes a command
// through the system shell.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vk/taskgridgo/internal/ctxlog"
	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the shell runner.
type Input struct {
	Command string `hcl:"command"`
	Dir     string `hcl:"dir,optional"`
}

// OnRunShell is the handler for the 'shell' runner. The command is passed
// to `sh -c` and inherits the task's context, so cancellation kills it.
func OnRunShell(ctx context.Context, input *Input) error {
	logger := ctxlog.FromContext(ctx)
	if strings.TrimSpace(input.Command) == "" {
		return fmt.Errorf("shell runner requires a non-empty command")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", input.Command)
	cmd.Dir = input.Dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Debug("Running shell command.", "command", input.Command)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command failed: %w\n%s", err, out.String())
	}
	if out.Len() > 0 {
		logger.Info("Shell command output.", "output", strings.TrimRight(out.String(), "\n"))
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("shell", &registry.Runner{
		NewInput: func() any { return new(Input) },
		Run: func(ctx context.Context, input any) error {
			return OnRunShell(ctx, input.(*Input))
		},
	})
}

// Package registry maps runner names used in pipeline files to the
// compiled Go handlers that implement them.
//
// During startup every core module registers its runners here; the graph
// builder then resolves each task block's `runner` attribute against this
// registry before execution begins.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/vk/taskgridgo/internal/device"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Runner holds the compiled Go parts of a runner.
//
// Exactly one of Run or BuildDevice must be set. Run makes the runner a
// plain CPU task; BuildDevice makes it a device task whose builder declares
// a device sub-graph from the decoded input.
type Runner struct {
	// NewInput returns a pointer to a fresh input struct for HCL decoding.
	NewInput func() any
	// Run executes a CPU task with the decoded input.
	Run func(ctx context.Context, input any) error
	// BuildDevice returns the device graph builder for the decoded input.
	BuildDevice func(input any) device.BuilderFunc
}

// Registry holds all the registered runners for a single application instance.
type Registry struct {
	runners map[string]*Runner
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		runners: make(map[string]*Runner),
	}
}

// RegisterRunner registers a Go handler under a runner name. Registering
// the same name twice is a programmer error.
func (r *Registry) RegisterRunner(name string, runner *Runner) {
	if _, exists := r.runners[name]; exists {
		panic(fmt.Sprintf("runner with name '%s' already registered", name))
	}
	if runner.Run == nil && runner.BuildDevice == nil {
		panic(fmt.Sprintf("runner '%s' registered without a Run or BuildDevice handler", name))
	}
	slog.Debug("Registering runner.", "name", name)
	r.runners[name] = runner
}

// Runner returns the runner registered under name, or an error listing what
// is available.
func (r *Registry) Runner(name string) (*Runner, error) {
	runner, ok := r.runners[name]
	if !ok {
		return nil, fmt.Errorf("unknown runner %q (registered: %v)", name, r.Names())
	}
	return runner, nil
}

// Names returns the sorted list of registered runner names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

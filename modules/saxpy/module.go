// Package saxpy provides the 'saxpy' runner, a device task computing
// y = a*x + y on the simulated accelerator. It demonstrates the full
// device pipeline: host-to-device copies feeding a kernel feeding
// device-to-host copies.
package saxpy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/taskgridgo/internal/device"
	"github.com/vk/taskgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the saxpy runner.
type Input struct {
	A float64   `hcl:"a"`
	X []float64 `hcl:"x"`
	Y []float64 `hcl:"y"`
}

// Build declares the device sub-graph for one saxpy invocation.
func Build(input *Input) device.BuilderFunc {
	return func(b *device.GraphBuilder) error {
		if len(input.X) != len(input.Y) {
			return fmt.Errorf("saxpy requires len(x) == len(y), got %d and %d", len(input.X), len(input.Y))
		}
		n := len(input.X)

		devX := make([]float64, n)
		devY := make([]float64, n)
		out := make([]float64, n)

		upX := b.Memcpy("h2d_x", devX, input.X, n, device.HostToDevice)
		upY := b.Memcpy("h2d_y", devY, input.Y, n, device.HostToDevice)

		k := b.Kernel("saxpy",
			device.LaunchConfig{Grid: device.Dim(1, 1, 1), Block: device.Dim(n, 1, 1)},
			func(ctx context.Context, _ device.LaunchConfig, args []any) error {
				x := args[0].([]float64)
				y := args[1].([]float64)
				a := args[2].(float64)
				for i := range y {
					y[i] = a*x[i] + y[i]
				}
				return nil
			}, devX, devY, input.A)

		down := b.Memcpy("d2h_y", out, devY, n, device.DeviceToHost)

		if err := k.Succeed(upX, upY); err != nil {
			return err
		}
		if err := k.Precede(down); err != nil {
			return err
		}

		// Kernels run on the stream goroutine, outside any request context,
		// so the report goes through the process logger.
		report := b.Kernel("report", device.LaunchConfig{},
			func(_ context.Context, _ device.LaunchConfig, args []any) error {
				slog.Info("saxpy result.", "y", args[0])
				return nil
			}, out)
		return report.Succeed(down)
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("saxpy", &registry.Runner{
		NewInput: func() any { return new(Input) },
		BuildDevice: func(input any) device.BuilderFunc {
			return Build(input.(*Input))
		},
	})
}

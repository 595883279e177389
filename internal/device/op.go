package device

import "context"

// Dim3 is a three-dimensional launch shape.
type Dim3 struct {
	X, Y, Z int
}

// Dim builds a Dim3, substituting 1 for non-positive components.
func Dim(x, y, z int) Dim3 {
	if x < 1 {
		x = 1
	}
	if y < 1 {
		y = 1
	}
	if z < 1 {
		z = 1
	}
	return Dim3{X: x, Y: y, Z: z}
}

// Count returns the total number of elements covered by the shape.
func (d Dim3) Count() int {
	return d.X * d.Y * d.Z
}

// LaunchConfig carries the launch shape of a kernel operation.
type LaunchConfig struct {
	Grid      Dim3
	Block     Dim3
	SharedMem int
}

// KernelFunc is the opaque callable behind a kernel operation. The engine
// passes the launch configuration and argument list through untouched.
type KernelFunc func(ctx context.Context, cfg LaunchConfig, args []any) error

// CopyDirection distinguishes the transfer kinds of a copy operation.
type CopyDirection int

const (
	HostToDevice CopyDirection = iota
	DeviceToHost
	DeviceToDevice
)

func (d CopyDirection) String() string {
	switch d {
	case HostToDevice:
		return "host-to-device"
	case DeviceToHost:
		return "device-to-host"
	case DeviceToDevice:
		return "device-to-device"
	default:
		return "unknown"
	}
}

// opKind tags the closed set of device operation variants.
type opKind int8

const (
	opKernel opKind = iota
	opCopy
)

// Op is one device operation declared during a single builder invocation.
// It is owned by the sub-graph that declared it; precedence edges are
// scoped to that sub-graph only.
type Op struct {
	builder *GraphBuilder
	index   int
	name    string
	kind    opKind

	// kernel parameters
	cfg  LaunchConfig
	fn   KernelFunc
	args []any

	// copy parameters
	dst   any
	src   any
	count int
	dir   CopyDirection

	succs []int
	preds []int
}

// Name returns the operation's diagnostic name.
func (o *Op) Name() string { return o.name }

// Precede adds edges so that o completes before each of the given ops
// starts. All operations must belong to the same sub-graph.
func (o *Op) Precede(succs ...*Op) error {
	for _, s := range succs {
		if err := o.builder.AddEdge(o, s); err != nil {
			return err
		}
	}
	return nil
}

// Succeed adds edges so that each of the given ops completes before o starts.
func (o *Op) Succeed(preds ...*Op) error {
	for _, p := range preds {
		if err := o.builder.AddEdge(p, o); err != nil {
			return err
		}
	}
	return nil
}

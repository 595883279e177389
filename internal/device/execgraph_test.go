package device

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileValidatesKernel(t *testing.T) {
	b := NewGraphBuilder()
	b.Kernel("broken", LaunchConfig{}, nil)

	_, err := compile(b)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "broken", cerr.Op)
	assert.Contains(t, cerr.Reason, "kernel function is nil")
}

func TestCompileValidatesCopies(t *testing.T) {
	testCases := []struct {
		name   string
		dst    any
		src    any
		count  int
		reason string
	}{
		{"non-slice endpoint", 42, make([]byte, 4), 4, "must be slices"},
		{"type mismatch", make([]int32, 4), make([]float32, 4), 4, "element type mismatch"},
		{"negative count", make([]byte, 4), make([]byte, 4), -1, "negative element count"},
		{"count too large", make([]byte, 2), make([]byte, 4), 4, "exceeds buffer length"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewGraphBuilder()
			b.Memcpy("bad", tc.dst, tc.src, tc.count, HostToDevice)

			_, err := compile(b)
			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Contains(t, cerr.Reason, tc.reason)
		})
	}
}

func TestCompileRejectsOpCycle(t *testing.T) {
	b := NewGraphBuilder()
	x := b.Kernel("x", LaunchConfig{}, nopKernel)
	y := b.Kernel("y", LaunchConfig{}, nopKernel)
	// The builder only rejects direct duplicates and self-edges; a cycle
	// through distinct ops is caught by the compiler.
	require.NoError(t, x.Precede(y))
	require.NoError(t, y.Precede(x))

	_, err := compile(b)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Reason, "cycle among device operations")
}

func TestExecuteHonorsOpEdges(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) KernelFunc {
		return func(context.Context, LaunchConfig, []any) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	b := NewGraphBuilder()
	left := b.Kernel("left", LaunchConfig{}, record("left"))
	right := b.Kernel("right", LaunchConfig{}, record("right"))
	join := b.Kernel("join", LaunchConfig{}, record("join"))
	require.NoError(t, join.Succeed(left, right))

	g, err := compile(b)
	require.NoError(t, err)
	require.NoError(t, g.execute(context.Background()))

	require.Len(t, order, 3)
	assert.Equal(t, "join", order[2], "join must run after both predecessors")
}

func TestExecuteSurfacesKernelError(t *testing.T) {
	boom := errors.New("boom")
	b := NewGraphBuilder()
	bad := b.Kernel("bad", LaunchConfig{}, func(context.Context, LaunchConfig, []any) error {
		return boom
	})
	after := b.Kernel("after", LaunchConfig{}, nopKernel)
	require.NoError(t, bad.Precede(after))

	g, err := compile(b)
	require.NoError(t, err)

	err = g.execute(context.Background())
	var lerr *LaunchError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "bad", lerr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestExecuteRecoversKernelPanic(t *testing.T) {
	b := NewGraphBuilder()
	b.Kernel("panicky", LaunchConfig{}, func(context.Context, LaunchConfig, []any) error {
		panic("kaboom")
	})

	g, err := compile(b)
	require.NoError(t, err)

	err = g.execute(context.Background())
	var lerr *LaunchError
	require.ErrorAs(t, err, &lerr)
	assert.Contains(t, lerr.Err.Error(), "kaboom")
}

func TestExecuteCopies(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	dst := make([]float64, 4)

	b := NewGraphBuilder()
	b.Memcpy("copy", dst, src, 3, DeviceToDevice)

	g, err := compile(b)
	require.NoError(t, err)
	require.NoError(t, g.execute(context.Background()))

	assert.Equal(t, []float64{1, 2, 3, 0}, dst)
}

func TestUpdateSwapsParameters(t *testing.T) {
	in := []float32{1, 2, 3, 4}
	out := make([]float32, 4)

	g, err := compile(buildPipeline(in, out, 2))
	require.NoError(t, err)
	require.NoError(t, g.execute(context.Background()))
	assert.Equal(t, []float32{2, 4, 6, 8}, out)

	// Same topology, new scale: the update path must take effect.
	require.NoError(t, g.update(buildPipeline(in, out, 10)))
	require.NoError(t, g.execute(context.Background()))
	assert.Equal(t, []float32{10, 20, 30, 40}, out)
}

func TestUpdateRejectsShapeMismatch(t *testing.T) {
	g, err := compile(buildPipeline(make([]float32, 2), make([]float32, 2), 1))
	require.NoError(t, err)

	other := NewGraphBuilder()
	other.Kernel("solo", LaunchConfig{}, nopKernel)

	var cerr *CompileError
	require.ErrorAs(t, g.update(other), &cerr)
}

package taskgraph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/device"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Nodes())
}

func TestNewNodeKinds(t *testing.T) {
	g := New()

	empty := g.NewNode("empty")
	task := g.NewTask("task", func(context.Context) error { return nil })
	dev := g.NewDeviceTask("dev", func(*device.GraphBuilder) error { return nil })

	assert.Equal(t, WorkEmpty, empty.Kind())
	assert.Equal(t, WorkTask, task.Kind())
	assert.NotNil(t, task.Task())
	assert.Equal(t, WorkDevice, dev.Kind())
	assert.NotNil(t, dev.Builder())
	assert.Equal(t, 3, g.Len())
}

func TestWorkReassignmentOverwrites(t *testing.T) {
	g := New()
	n := g.NewTask("n", func(context.Context) error { return nil })

	require.NoError(t, n.SetDeviceTask(func(*device.GraphBuilder) error { return nil }))
	assert.Equal(t, WorkDevice, n.Kind())
	assert.Nil(t, n.Task())
	assert.NotNil(t, n.Builder())

	require.NoError(t, n.SetEmpty())
	assert.Equal(t, WorkEmpty, n.Kind())
	assert.Nil(t, n.Builder())

	require.NoError(t, n.SetTask(func(context.Context) error { return nil }))
	assert.Equal(t, WorkTask, n.Kind())
}

func TestAddEdge(t *testing.T) {
	g := New()
	a := g.NewNode("a")
	b := g.NewNode("b")

	require.NoError(t, g.AddEdge(a, b))
	assert.Equal(t, 1, a.NumSuccessors())
	assert.Equal(t, 0, a.NumPredecessors())
	assert.Equal(t, 1, b.NumPredecessors())
	assert.Equal(t, 0, b.NumSuccessors())
}

func TestAddEdgeRejectsCycle(t *testing.T) {
	g := New()
	a := g.NewNode("a")
	b := g.NewNode("b")
	c := g.NewNode("c")
	require.NoError(t, g.AddEdge(a, b))
	require.NoError(t, g.AddEdge(b, c))

	err := g.AddEdge(c, a)
	require.Error(t, err)

	var serr *StructureError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindCycle, serr.Kind)

	// The failed call must leave the graph structurally unchanged.
	assert.Equal(t, 0, c.NumSuccessors())
	assert.Equal(t, 0, a.NumPredecessors())
}

func TestAddEdgeValidation(t *testing.T) {
	g := New()
	other := New()
	a := g.NewNode("a")
	b := g.NewNode("b")
	foreign := other.NewNode("foreign")
	require.NoError(t, g.AddEdge(a, b))

	testCases := []struct {
		name string
		from *Node
		to   *Node
		kind StructureKind
	}{
		{"self edge", a, a, KindSelfEdge},
		{"cross graph", a, foreign, KindCrossGraph},
		{"nil endpoint", a, nil, KindNilNode},
		{"duplicate", a, b, KindDuplicateEdge},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.AddEdge(tc.from, tc.to)
			var serr *StructureError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tc.kind, serr.Kind)
		})
	}
}

func TestPrecedeSucceedSugar(t *testing.T) {
	g := New()
	a := g.NewNode("a")
	b := g.NewNode("b")
	c := g.NewNode("c")
	d := g.NewNode("d")

	require.NoError(t, a.Precede(b, c))
	require.NoError(t, d.Succeed(b, c))

	assert.Equal(t, 2, a.NumSuccessors())
	assert.Equal(t, 2, d.NumPredecessors())
	assert.Equal(t, 1, b.NumPredecessors())
	assert.Equal(t, 1, b.NumSuccessors())
}

func TestRunningGuards(t *testing.T) {
	g := New()
	a := g.NewNode("a")
	b := g.NewNode("b")

	require.True(t, g.BeginRun())
	assert.False(t, g.BeginRun(), "second BeginRun must fail while in flight")

	assert.ErrorIs(t, g.AddEdge(a, b), ErrGraphRunning)
	assert.ErrorIs(t, a.SetTask(func(context.Context) error { return nil }), ErrGraphRunning)
	assert.ErrorIs(t, a.SetEmpty(), ErrGraphRunning)
	assert.ErrorIs(t, g.Clear(), ErrGraphRunning)

	g.EndRun()
	assert.NoError(t, g.AddEdge(a, b))
	assert.True(t, g.BeginRun())
	g.EndRun()
}

func TestBeginRunResetsCounters(t *testing.T) {
	g := New()
	a := g.NewNode("a")
	b := g.NewNode("b")
	require.NoError(t, g.AddEdge(a, b))

	require.True(t, g.BeginRun())
	assert.Equal(t, int32(0), a.Pending())
	assert.Equal(t, int32(1), b.Pending())
	assert.Equal(t, Pending, a.State())

	// Simulate one run's worth of mutation, then re-submit.
	b.DecrementPending()
	b.SetState(Completed)
	b.SetErr(errors.New("stale"))
	g.EndRun()

	require.True(t, g.BeginRun())
	assert.Equal(t, int32(1), b.Pending())
	assert.Equal(t, Pending, b.State())
	assert.NoError(t, b.Err())
	g.EndRun()
}

func TestClear(t *testing.T) {
	g := New()
	a := g.NewNode("a")
	b := g.NewNode("b")
	require.NoError(t, g.AddEdge(a, b))

	require.NoError(t, g.Clear())
	assert.Zero(t, g.Len())

	// Nodes from a cleared graph are destroyed; edges touching them fail.
	g2 := New()
	c := g2.NewNode("c")
	err := g2.AddEdge(c, a)
	var serr *StructureError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, KindNilNode, serr.Kind)
}

func TestDestroyedNodeMutationsFail(t *testing.T) {
	g := New()
	a := g.NewNode("a")
	b := g.NewNode("b")
	require.NoError(t, g.Clear())

	live := New().NewNode("live")

	mutations := []struct {
		name string
		call func() error
	}{
		{"Precede", func() error { return a.Precede(b) }},
		{"Succeed", func() error { return b.Succeed(a) }},
		{"Precede live target", func() error { return a.Precede(live) }},
		{"SetTask", func() error { return a.SetTask(func(context.Context) error { return nil }) }},
		{"SetDeviceTask", func() error { return a.SetDeviceTask(func(*device.GraphBuilder) error { return nil }) }},
		{"SetEmpty", func() error { return a.SetEmpty() }},
	}

	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			var serr *StructureError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, KindNilNode, serr.Kind)
		})
	}
}

func TestWriteDot(t *testing.T) {
	g := New()
	a := g.NewNode("prepare")
	b := g.NewNode("crunch")
	require.NoError(t, g.AddEdge(a, b))

	out := g.Dot()
	assert.True(t, strings.HasPrefix(out, "digraph taskgraph {"))
	assert.Contains(t, out, `label="prepare"`)
	assert.Contains(t, out, `label="crunch"`)
	assert.Contains(t, out, "n0 -> n1;")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "launched", Launched.String())
	assert.Equal(t, "skipped", Skipped.String())
}

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/taskgridgo/internal/device"
)

func noopRunner() *Runner {
	return &Runner{
		NewInput: func() any { return new(struct{}) },
		Run:      func(context.Context, any) error { return nil },
	}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	r.RegisterRunner("noop", noopRunner())

	runner, err := r.Runner("noop")
	require.NoError(t, err)
	assert.NotNil(t, runner.Run)
	assert.Nil(t, runner.BuildDevice)
}

func TestUnknownRunnerErrorListsRegistered(t *testing.T) {
	r := New()
	r.RegisterRunner("alpha", noopRunner())
	r.RegisterRunner("beta", noopRunner())

	_, err := r.Runner("gamma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown runner "gamma"`)
	assert.Contains(t, err.Error(), "alpha")
	assert.Contains(t, err.Error(), "beta")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := New()
	r.RegisterRunner("dup", noopRunner())
	assert.Panics(t, func() {
		r.RegisterRunner("dup", noopRunner())
	})
}

func TestRunnerWithoutHandlerPanics(t *testing.T) {
	r := New()
	assert.Panics(t, func() {
		r.RegisterRunner("empty", &Runner{NewInput: func() any { return new(struct{}) }})
	})
}

func TestDeviceRunnerRegistration(t *testing.T) {
	r := New()
	r.RegisterRunner("dev", &Runner{
		NewInput: func() any { return new(struct{}) },
		BuildDevice: func(any) device.BuilderFunc {
			return func(*device.GraphBuilder) error { return nil }
		},
	})

	runner, err := r.Runner("dev")
	require.NoError(t, err)
	assert.Nil(t, runner.Run)
	assert.NotNil(t, runner.BuildDevice)
}

func TestNamesSorted(t *testing.T) {
	r := New()
	r.RegisterRunner("zeta", noopRunner())
	r.RegisterRunner("alpha", noopRunner())
	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

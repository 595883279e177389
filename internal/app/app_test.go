package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePipeline(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func testConfig(t *testing.T, pipelinePath string) *Config {
	t.Helper()
	cfg, err := NewConfig(Config{
		PipelinePath: pipelinePath,
		LogFormat:    "text",
		LogLevel:     "debug",
	})
	require.NoError(t, err)
	return cfg
}

func TestAppRunsPipelineEndToEnd(t *testing.T) {
	path := writePipeline(t, `
task "greet" {
  runner  = "print"
  message = "hello from the pipeline"
}

task "nap" {
  runner     = "sleep"
  duration   = "1ms"
  depends_on = ["greet"]
}
`)

	var out bytes.Buffer
	a := NewApp(&out, testConfig(t, path))
	require.NoError(t, a.Run(context.Background(), testConfig(t, path)))

	assert.Contains(t, out.String(), "hello from the pipeline")
	assert.Contains(t, out.String(), "Execution finished.")
}

func TestAppRunsDevicePipeline(t *testing.T) {
	path := writePipeline(t, `
task "compute" {
  runner = "saxpy"
  a      = 2
  x      = [1, 2, 3]
  y      = [10, 20, 30]
}
`)

	var out bytes.Buffer
	a := NewApp(&out, testConfig(t, path))
	require.NoError(t, a.Run(context.Background(), testConfig(t, path)))
	assert.Contains(t, out.String(), "Execution finished.")
}

func TestAppReportsFailingTask(t *testing.T) {
	path := writePipeline(t, `
task "doomed" {
  runner   = "sleep"
  duration = "not-a-duration"
}

task "never" {
  runner     = "print"
  message    = "unreachable"
  depends_on = ["doomed"]
}
`)

	var out bytes.Buffer
	a := NewApp(&out, testConfig(t, path))
	err := a.Run(context.Background(), testConfig(t, path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `execution failed at task "doomed"`)
	assert.NotContains(t, out.String(), "unreachable")
}

func TestAppRejectsUnknownRunnerAtBuildTime(t *testing.T) {
	path := writePipeline(t, `
task "mystery" {
  runner = "warp_drive"
}
`)

	var out bytes.Buffer
	a := NewApp(&out, testConfig(t, path))
	err := a.Run(context.Background(), testConfig(t, path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build task graph")
}

func TestNewAppPanicsOnMissingPipeline(t *testing.T) {
	var out bytes.Buffer
	assert.Panics(t, func() {
		NewApp(&out, testConfig(t, "/nonexistent/pipeline.hcl"))
	})
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.Error(t, err)

	_, err = NewConfig(Config{PipelinePath: "p.hcl", WorkerCount: -1})
	assert.Error(t, err)

	_, err = NewConfig(Config{PipelinePath: "p.hcl", MetricsPort: 70000})
	assert.Error(t, err)

	cfg, err := NewConfig(Config{PipelinePath: "p.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "p.hcl", cfg.PipelinePath)
}

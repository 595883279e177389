package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// An HCL file with a syntax error guarantees a panic inside app.NewApp.
	invalidHCL := `
		task "broken" {
			runner = "print"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	out := &bytes.Buffer{}
	runErr := run(out, []string{filePath})

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
	require.Contains(t, runErr.Error(), "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_FullPipeline(t *testing.T) {
	t.Parallel()

	pipeline := `
task "hello" {
  runner  = "print"
  message = "integration says hi"
}

task "compute" {
  runner     = "saxpy"
  a          = 3
  x          = [1, 2]
  y          = [0, 0]
  depends_on = ["hello"]
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(pipeline), 0600))

	out := &bytes.Buffer{}
	err := run(out, []string{"--log-format", "text", filePath})

	require.NoError(t, err)
	require.Contains(t, out.String(), "integration says hi")
	require.Contains(t, out.String(), "Execution finished.")
}

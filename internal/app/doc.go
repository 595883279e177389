// Package app wires the application together: it owns the logger, the
// runner registry, the loaded pipeline, and the execution lifecycle.
package app

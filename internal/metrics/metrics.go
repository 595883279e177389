// Package metrics defines the engine's Prometheus instrumentation. All
// counters hang off an injectable Registerer so tests and embedders can use
// isolated registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine's counters. A nil *Metrics is valid everywhere
// one is accepted and disables instrumentation.
type Metrics struct {
	// NodesCompleted counts host task nodes that reached the completed state.
	NodesCompleted prometheus.Counter
	// NodesFailed counts host task nodes that failed or were skipped.
	NodesFailed prometheus.Counter
	// DeviceCompiles counts full compilations of device sub-graphs.
	DeviceCompiles prometheus.Counter
	// DeviceCacheHits counts parameter-only updates that reused a compiled graph.
	DeviceCacheHits prometheus.Counter
	// DeviceLaunches counts compiled graphs enqueued on the device stream.
	DeviceLaunches prometheus.Counter
	// RunsTotal counts graph submissions.
	RunsTotal prometheus.Counter
}

// New creates the counter set registered against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NodesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskgridgo_nodes_completed_total",
			Help: "Host task nodes that completed successfully.",
		}),
		NodesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskgridgo_nodes_failed_total",
			Help: "Host task nodes that failed or were skipped.",
		}),
		DeviceCompiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskgridgo_device_compiles_total",
			Help: "Full device sub-graph compilations.",
		}),
		DeviceCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskgridgo_device_cache_hits_total",
			Help: "Parameter-only updates that reused a compiled device graph.",
		}),
		DeviceLaunches: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskgridgo_device_launches_total",
			Help: "Compiled device graphs launched on the execution stream.",
		}),
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskgridgo_runs_total",
			Help: "Dependency graph submissions.",
		}),
	}
}

// IncNodesCompleted increments the completed-node counter if metrics are enabled.
func (m *Metrics) IncNodesCompleted() {
	if m != nil {
		m.NodesCompleted.Inc()
	}
}

// IncNodesFailed increments the failed-node counter if metrics are enabled.
func (m *Metrics) IncNodesFailed() {
	if m != nil {
		m.NodesFailed.Inc()
	}
}

// IncDeviceCompiles increments the compile counter if metrics are enabled.
func (m *Metrics) IncDeviceCompiles() {
	if m != nil {
		m.DeviceCompiles.Inc()
	}
}

// IncDeviceCacheHits increments the cache-hit counter if metrics are enabled.
func (m *Metrics) IncDeviceCacheHits() {
	if m != nil {
		m.DeviceCacheHits.Inc()
	}
}

// IncDeviceLaunches increments the launch counter if metrics are enabled.
func (m *Metrics) IncDeviceLaunches() {
	if m != nil {
		m.DeviceLaunches.Inc()
	}
}

// IncRuns increments the submission counter if metrics are enabled.
func (m *Metrics) IncRuns() {
	if m != nil {
		m.RunsTotal.Inc()
	}
}

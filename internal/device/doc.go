// Package device models the accelerator side of the engine: device
// operations (kernel launches and memory copies), the sub-graph builder
// handed to device task nodes, the graph compiler with its topology-keyed
// cache, and the single in-order execution stream.
//
// The accelerator is simulated in-process: kernels are opaque Go callables
// and copies move elements between caller-owned slices. The contracts are
// the interesting part and they mirror a real device runtime: a sub-graph
// is described once per builder invocation, compiled into an immutable
// executable graph, launched as one atomic unit, and signals completion
// asynchronously. Recompilation is skipped when only operation parameters
// changed, because capture/compile is materially more expensive than
// swapping launch parameters.
package device

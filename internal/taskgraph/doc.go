// Package taskgraph implements the host-level dependency graph model: an
// owning arena of task nodes connected by precedence edges.
//
// A Graph exclusively owns its nodes for their entire lifetime. Edges are
// validated synchronously at creation time; an edge that would close a
// cycle, or that references a node from another graph, is rejected with a
// *StructureError and leaves the graph unchanged.
//
// The graph performs no execution itself. It is handed to an executor,
// which resets the per-run counters and drives nodes through their state
// machine. Structural mutation concurrent with an in-progress run on the
// same graph is undefined; mutating entry points carry a best-effort guard
// that rejects the call when a run is in flight.
package taskgraph

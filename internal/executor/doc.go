// Package executor schedules dependency graphs across a pool of worker
// goroutines and one device execution stream.
//
// A submission seeds the ready channel with every zero-dependency node;
// workers pop ready nodes and dispatch on the node's work variant. Plain
// callables run on the worker itself. Device task nodes invoke their
// builder once, hand the description to the graph compiler, launch the
// compiled graph on the stream, and return to the pool immediately; the
// node's successors are unlocked only when the stream signals that the
// whole sub-graph finished.
//
// After the first recorded error no new node transitions to Running:
// already-running callables and already-launched device graphs finish on
// their own, every untouched downstream node is skipped, and the run
// handle resolves carrying the first error and the originating node.
package executor

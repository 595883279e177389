package device

import (
	"sync"
	"sync/atomic"

	"github.com/vk/taskgridgo/internal/metrics"
)

// Compiler turns sub-graph descriptions into executable graphs and caches
// the result per owning task node. The cache key is the sub-graph's
// topology signature, never its parameter values: re-invoking a builder
// with the same topology but different parameters takes the cheap
// update-in-place path instead of a full recompile. A topology change
// invalidates the cached graph and forces recompilation.
type Compiler struct {
	mu      sync.Mutex
	entries map[any]*cacheEntry

	compiles  atomic.Int64
	cacheHits atomic.Int64

	metrics *metrics.Metrics
}

type cacheEntry struct {
	sig      Signature
	graph    *ExecGraph
	compiles int
}

// NewCompiler creates an empty compiler. m may be nil.
func NewCompiler(m *metrics.Metrics) *Compiler {
	return &Compiler{
		entries: make(map[any]*cacheEntry),
		metrics: m,
	}
}

// Build resolves the description b for the task node identified by key.
// It returns the cached executable graph after a parameter update when the
// topology signature matches, and a freshly compiled graph otherwise.
func (c *Compiler) Build(key any, b *GraphBuilder) (*ExecGraph, error) {
	sig := b.Signature()

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok && entry.sig == sig {
		if err := entry.graph.update(b); err != nil {
			return nil, err
		}
		c.cacheHits.Add(1)
		c.metrics.IncDeviceCacheHits()
		return entry.graph, nil
	}

	graph, err := compile(b)
	if err != nil {
		return nil, err
	}
	entry := c.entries[key]
	if entry == nil {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	entry.sig = sig
	entry.graph = graph
	entry.compiles++
	c.compiles.Add(1)
	c.metrics.IncDeviceCompiles()
	return graph, nil
}

// CompileCount returns how many full compilations have been performed for
// the given task node key. Parameter-only updates do not count.
func (c *Compiler) CompileCount(key any) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		return entry.compiles
	}
	return 0
}

// Invalidate drops the cached graph for key, if any.
func (c *Compiler) Invalidate(key any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Compiles returns the total number of full compilations.
func (c *Compiler) Compiles() int64 { return c.compiles.Load() }

// CacheHits returns the total number of parameter-only updates.
func (c *Compiler) CacheHits() int64 { return c.cacheHits.Load() }

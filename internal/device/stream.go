package device

import (
	"context"
	"sync"
)

// launchQueueDepth bounds the number of outstanding launches. Launch blocks
// once the queue is full, which only happens when the host submits graphs
// far faster than the stream retires them.
const launchQueueDepth = 128

// Stream is the single in-order accelerator execution stream. Compiled
// graphs launch asynchronously and execute one at a time in FIFO launch
// order; completion is signaled through the callback passed to Launch.
// Operations inside one graph still run concurrently where their edges allow.
type Stream struct {
	queue   chan streamItem
	stopped chan struct{}

	// mu serializes enqueues against Close so a racing Launch can never
	// send on the closed queue channel.
	mu     sync.Mutex
	closed bool
}

type streamItem struct {
	graph *ExecGraph
	done  func(error)
}

// NewStream starts the stream's execution loop.
func NewStream() *Stream {
	s := &Stream{
		queue:   make(chan streamItem, launchQueueDepth),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Stream) loop() {
	defer close(s.stopped)
	for item := range s.queue {
		var err error
		if item.graph != nil {
			err = item.graph.execute(context.Background())
		}
		if item.done != nil {
			item.done(err)
		}
	}
}

// Launch enqueues a compiled graph. The call returns as soon as the graph
// is queued; done runs on the stream goroutine once the whole graph has
// finished, with the first operation error if any.
func (s *Stream) Launch(g *ExecGraph, done func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.queue <- streamItem{graph: g, done: done}
	return nil
}

// RecordEvent enqueues a completion marker. The returned event resolves
// when every launch enqueued before it has retired, mirroring stream-ordered
// event semantics.
func (s *Stream) RecordEvent() (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	ev := newEvent()
	s.queue <- streamItem{done: func(error) { ev.signal(nil) }}
	return ev, nil
}

// Synchronize blocks until all previously launched work has retired or the
// context is done.
func (s *Stream) Synchronize(ctx context.Context) error {
	ev, err := s.RecordEvent()
	if err != nil {
		return err
	}
	return ev.Wait(ctx)
}

// Close drains outstanding launches and stops the stream. Launch and
// RecordEvent fail with ErrStreamClosed afterwards. Close is idempotent.
func (s *Stream) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.stopped
}

// Event is a one-shot completion signal raised by the device stream.
type Event struct {
	ch  chan struct{}
	err error
}

func newEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

func (e *Event) signal(err error) {
	e.err = err
	close(e.ch)
}

// Done returns a channel closed when the event fires.
func (e *Event) Done() <-chan struct{} { return e.ch }

// Ready reports whether the event has fired, without blocking.
func (e *Event) Ready() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the event fires or ctx is done.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.ch:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

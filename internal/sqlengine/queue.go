package sqlengine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Request states. A request moves from pending to exactly one of running or
// cancelled, never back.
const (
	requestPending int32 = iota
	requestRunning
	requestCancelled
)

// request is one unit of work for a Connection's worker goroutine.
type request struct {
	op     string
	fn     func() error
	state  atomic.Int32
	done   chan error // Buffered, size 1: the worker never blocks on delivery
	queued time.Time
}

func newRequest(op string, fn func() error) *request {
	return &request{
		op:     op,
		fn:     fn,
		done:   make(chan error, 1),
		queued: time.Now(),
	}
}

// start claims the request for execution.
// Returns false if the caller cancelled it while it was queued.
func (r *request) start() bool {
	return r.state.CompareAndSwap(requestPending, requestRunning)
}

// cancel withdraws a queued request.
// Returns false if the worker already started it.
func (r *request) cancel() bool {
	return r.state.CompareAndSwap(requestPending, requestCancelled)
}

// requestQueue is a thread-safe FIFO queue of requests.
//
// Requests are appended under a mutex, so their order is the order in which
// callers issued them. The queue uses a channel for signaling so that the
// worker can sleep until work arrives.
type requestQueue struct {
	mu     sync.Mutex
	reqs   []*request
	closed bool
	signal chan struct{} // Signals request availability (buffered, size 1)
}

// newRequestQueue creates an empty request queue.
func newRequestQueue() *requestQueue {
	return &requestQueue{
		reqs:   make([]*request, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(r *request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.reqs = append(q.reqs, r)

	// Signal availability (non-blocking - buffer of 1 coalesces multiple signals)
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front request without blocking.
// Returns (nil, false) if the queue is empty.
func (q *requestQueue) TryDequeue() (*request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.reqs) == 0 {
		return nil, false
	}

	r := q.reqs[0]
	q.reqs[0] = nil // Release the slot so the closure can be collected

	if len(q.reqs) == 1 {
		q.reqs = q.reqs[:0]
	} else {
		q.reqs = q.reqs[1:]
	}

	return r, true
}

// Wait returns a channel that signals when requests may be available.
// After Close, the channel is closed and never blocks.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drained reports whether the queue is closed and empty.
func (q *requestQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.reqs) == 0
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.reqs)
}

// Close stops the queue from accepting requests. Requests already queued
// are still delivered by TryDequeue.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal) // Wakes the worker
}

// await blocks until r completes or ctx is done.
//
// If ctx ends while r is still queued, r is withdrawn and never runs. If r
// has already started, await waits for it to finish: a running native call
// cannot be interrupted.
func await(ctx context.Context, r *request) error {
	select {
	case err := <-r.done:
		return err
	case <-ctx.Done():
		if r.cancel() {
			operationsTotal.WithLabelValues(r.op, outcomeCancelled).Inc()
			return ctx.Err()
		}
		return <-r.done
	}
}

// withdrawn reports whether err came from a request that was cancelled
// before the worker started it. Requests never observe their caller's
// context once running, so a context error can only mean withdrawal.
func withdrawn(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

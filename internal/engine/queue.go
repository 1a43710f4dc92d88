package engine

import "sync"

// opQueue is an unbounded, thread-safe FIFO of pending ops.
//
// A buffered signal channel of size 1 wakes the Run loop; closing the queue
// closes the channel so a waiting loop returns promptly.
type opQueue struct {
	mu     sync.Mutex
	ops    []Op
	closed bool
	signal chan struct{}
}

func newOpQueue() *opQueue {
	return &opQueue{
		ops:    make([]Op, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends op. Returns false if the queue is closed.
func (q *opQueue) Enqueue(op Op) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.ops = append(q.ops, op)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front op without blocking.
func (q *opQueue) TryDequeue() (Op, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return Op{}, false
	}

	op := q.ops[0]
	// Drop the reference so block data can be collected.
	q.ops[0] = Op{}
	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}
	return op, true
}

// Wait returns a channel that fires when ops may be available or the queue
// was closed.
func (q *opQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending ops.
func (q *opQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Close stops further enqueues and wakes the waiter.
func (q *opQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

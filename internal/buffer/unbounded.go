package buffer

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
)

// Queue is a channel-backed FIFO that grows as needed so producers never
// block on a slow consumer.
//
//	q := buffer.New[func()](100, 0)
//	q.Push(job)
//	job := <-q.Out()
type Queue[T any] struct {
	in   chan T
	out  chan T
	done chan struct{}

	hardLimit int
	length    atomic.Int64
	dropped   atomic.Uint64
	closeOnce sync.Once
	logger    *log.Logger
}

// New starts a queue.
//
// initialCap: starting size of the backing slice.
// hardLimit: items buffered before the oldest is dropped; <= 0 means no limit.
func New[T any](initialCap, hardLimit int) *Queue[T] {
	q := &Queue[T]{
		in:        make(chan T, 10), // Small input buffer to reduce context switching
		out:       make(chan T, 10),
		done:      make(chan struct{}),
		hardLimit: hardLimit,
		logger:    log.New(os.Stderr, "", log.LstdFlags),
	}
	go q.pump(initialCap)
	return q
}

// Push enqueues v. It returns false once the queue is closed.
func (q *Queue[T]) Push(v T) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	q.length.Add(1)
	select {
	case q.in <- v:
		return true
	case <-q.done:
		q.length.Add(-1)
		return false
	}
}

// Out is the consumer side.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Len returns the number of items pushed and not yet handed to Out.
func (q *Queue[T]) Len() int {
	return int(q.length.Load())
}

// Dropped returns how many items the hard limit discarded.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}

// Close stops the queue. Buffered items are discarded.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue[T]) pump(initialCap int) {
	queue := make([]T, 0, initialCap)

	for {
		var next T
		var downstream chan T

		// Enable the out case only if there is data to send.
		if len(queue) > 0 {
			next = queue[0]
			downstream = q.out
		}

		select {
		case <-q.done:
			return

		case val := <-q.in:
			if q.hardLimit > 0 && len(queue) >= q.hardLimit {
				q.logger.Printf("[Buffer] Warning: queue limit reached (%d). Dropping oldest item.", q.hardLimit)
				var zero T
				queue[0] = zero
				queue = queue[1:]
				q.dropped.Add(1)
				q.length.Add(-1)
			}
			queue = append(queue, val)

		case downstream <- next:
			var zero T
			queue[0] = zero
			queue = queue[1:]
			q.length.Add(-1)
		}
	}
}

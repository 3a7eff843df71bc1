package timer

import (
	"container/heap"
	"sync"
	"time"
)

// Manual is a Facility driven by a virtual clock. Nothing fires until
// Advance is called; due callbacks then run on the caller's goroutine in
// deadline order (ties in arm order).
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  pendingHeap
	live   map[Handle]*pending
	nextID Handle
}

type pending struct {
	id   Handle
	when time.Time
	fn   func()
}

var _ Facility = (*Manual)(nil)

// NewManual creates a virtual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:  start,
		live: make(map[Handle]*pending),
	}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Arm schedules fn at Now()+d.
func (m *Manual) Arm(d time.Duration, fn func()) (Handle, error) {
	if err := validate(d, fn); err != nil {
		return NoHandle, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p := &pending{id: m.nextID, when: m.now.Add(d), fn: fn}
	m.live[p.id] = p
	heap.Push(&m.queue, p)
	return p.id, nil
}

// Disarm cancels h. Removal from the queue is lazy.
func (m *Manual) Disarm(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, h)
}

// Pending returns the number of live handles.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Advance moves the clock forward by d, firing every callback that falls due
// on the way, including ones armed by callbacks during the advance.
// It returns the number of callbacks fired.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	fired := 0
	for {
		m.mu.Lock()
		p := m.popDue(target)
		if p == nil {
			if target.After(m.now) {
				m.now = target
			}
			m.mu.Unlock()
			return fired
		}
		if p.when.After(m.now) {
			m.now = p.when
		}
		delete(m.live, p.id)
		m.mu.Unlock()

		p.fn()
		fired++
	}
}

// popDue returns the next live entry due at or before target. Caller holds mu.
func (m *Manual) popDue(target time.Time) *pending {
	for m.queue.Len() > 0 {
		top := m.queue[0]
		if _, ok := m.live[top.id]; !ok {
			heap.Pop(&m.queue)
			continue
		}
		if top.when.After(target) {
			return nil
		}
		return heap.Pop(&m.queue).(*pending)
	}
	return nil
}

type pendingHeap []*pending

var _ heap.Interface = (*pendingHeap)(nil)

func (h pendingHeap) Len() int { return len(h) }

func (h pendingHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].id < h[j].id
	}
	return h[i].when.Before(h[j].when)
}

func (h pendingHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pendingHeap) Push(x any) { *h = append(*h, x.(*pending)) }

func (h *pendingHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return x
}

package timer

import (
	"sync"
	"time"
)

// Dispatcher hands an expired callback to the goroutine that should run it.
type Dispatcher func(job func())

// Stats is a snapshot of Service counters.
type Stats struct {
	Active   int
	Fired    uint64
	Disarmed uint64
}

// Service is a wall-clock Facility backed by time.AfterFunc.
// It owns handle generation, scheduling and cancellation.
//
// With a Dispatcher, callbacks run wherever the dispatcher runs them (usually
// an event loop). A handle disarmed after its job was dispatched but before
// the job ran is still suppressed: liveness is decided when the job runs.
type Service struct {
	dispatch Dispatcher

	mu       sync.Mutex
	timers   map[Handle]*entry
	nextID   Handle
	fired    uint64
	disarmed uint64
}

type entry struct {
	fn   func()
	stop func() bool // time.Timer.Stop
}

var _ Facility = (*Service)(nil)

// NewService creates a timer service. A nil dispatch runs callbacks on the
// time.AfterFunc goroutine.
func NewService(dispatch Dispatcher) *Service {
	return &Service{
		dispatch: dispatch,
		timers:   make(map[Handle]*entry),
	}
}

// Arm schedules fn to run once after d.
func (s *Service) Arm(d time.Duration, fn func()) (Handle, error) {
	if err := validate(d, fn); err != nil {
		return NoHandle, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	t := time.AfterFunc(d, func() {
		s.expire(id)
	})

	s.timers[id] = &entry{
		fn:   fn,
		stop: t.Stop,
	}

	return id, nil
}

func (s *Service) expire(id Handle) {
	if s.dispatch == nil {
		s.run(id)
		return
	}
	s.dispatch(func() { s.run(id) })
}

// run consumes the handle and invokes its callback.
func (s *Service) run(id Handle) {
	s.mu.Lock()
	e, ok := s.timers[id]
	if !ok {
		s.mu.Unlock()
		return // Disarmed before the job ran
	}
	delete(s.timers, id)
	s.fired++
	s.mu.Unlock()

	e.fn()
}

// Disarm cancels a handle. Unknown or consumed handles are ignored.
func (s *Service) Disarm(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.timers[h]; ok {
		e.stop()
		delete(s.timers, h)
		s.disarmed++
	}
}

// DisarmAll cancels every live handle.
func (s *Service) DisarmAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.timers {
		e.stop()
	}
	s.disarmed += uint64(len(s.timers))
	s.timers = make(map[Handle]*entry)
}

// Stats returns current counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Active:   len(s.timers),
		Fired:    s.fired,
		Disarmed: s.disarmed,
	}
}

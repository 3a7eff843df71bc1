// Package retimer provides a one-shot deferred callback that can be pushed
// forward, pulled in, re-armed after it fired, or cleared for good.
package retimer

import (
	"sync"
	"time"

	"github.com/drake/retimer/timer"
)

// Func is invoked on every firing with the args given to New.
type Func func(args ...any)

// State is the lifecycle position of a Timer.
type State int

const (
	Armed   State = iota // one live handle pending
	Idle                 // fired, no live handle, may be rescheduled
	Cleared              // terminal
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Idle:
		return "idle"
	case Cleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Timer owns at most one live handle on its Facility. Every reschedule
// replaces that handle; Clear retires the timer permanently.
type Timer struct {
	host timer.Facility
	fn   Func
	args []any

	mu      sync.Mutex
	delay   time.Duration
	handle  timer.Handle // NoHandle when nothing is pending
	gen     uint64       // identifies the current handle's callback
	cleared bool
	fires   uint64
}

// New creates a timer and arms it for delay. Errors from the facility (for
// example a negative delay) are returned unchanged.
//
// fn may fire before New returns. On a facility that runs callbacks on their
// own goroutines (a Service without a Dispatcher), a callback that reschedules
// its own timer must read the *Timer through something synchronized, such as
// an atomic.Pointer or a channel.
func New(host timer.Facility, fn Func, delay time.Duration, args ...any) (*Timer, error) {
	t := &Timer{
		host:  host,
		fn:    fn,
		args:  args,
		delay: delay,
	}
	if fn == nil {
		return nil, timer.ErrNilCallback
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.arm(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reschedule replaces any pending firing with one delay from now, whether or
// not the previous one already fired. It does nothing on a cleared timer.
// On error the previous delay is kept and the timer is left Idle.
func (t *Timer) Reschedule(delay time.Duration) (*Timer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cleared {
		return t, nil
	}
	prev := t.delay
	t.delay = delay
	if err := t.rearm(); err != nil {
		t.delay = prev
		return t, err
	}
	return t, nil
}

// Restart is Reschedule with the current delay.
func (t *Timer) Restart() (*Timer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cleared {
		return t, nil
	}
	return t, t.rearm()
}

// Clear cancels any pending firing and retires the timer. Safe to call
// repeatedly.
//
// A firing that had already started when Clear was called still runs its
// callback, and on a multi-threaded facility that may happen after Clear
// returns. Callers that need a hard stop must serialize Clear with the
// callback, for example by running both on one event loop.
func (t *Timer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disarm()
	t.cleared = true
}

// State reports where the timer is in its lifecycle.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.cleared:
		return Cleared
	case t.handle.Valid():
		return Armed
	default:
		return Idle
	}
}

// Delay returns the delay used by the next Restart.
func (t *Timer) Delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

// Fires returns how many times the callback has been invoked.
func (t *Timer) Fires() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fires
}

// rearm cancels the live handle unconditionally and arms a fresh one.
// Caller holds mu.
func (t *Timer) rearm() error {
	t.disarm()
	return t.arm()
}

// Caller holds mu.
func (t *Timer) arm() error {
	t.gen++
	gen := t.gen
	h, err := t.host.Arm(t.delay, func() { t.fire(gen) })
	if err != nil {
		return err
	}
	t.handle = h
	return nil
}

// disarm is a no-op when no handle is live. Bumping gen also suppresses a
// firing the facility already handed off. Caller holds mu.
func (t *Timer) disarm() {
	t.gen++
	if !t.handle.Valid() {
		return
	}
	t.host.Disarm(t.handle)
	t.handle = timer.NoHandle
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.cleared || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.handle = timer.NoHandle
	t.fires++
	t.mu.Unlock()

	// Outside the lock so the callback may Reschedule or Clear.
	t.fn(t.args...)
}

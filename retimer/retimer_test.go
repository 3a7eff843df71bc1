package retimer

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/drake/retimer/timer"
)

const ms = time.Millisecond

var epoch = time.Unix(0, 0)

// recorder captures firings against a manual clock.
type recorder struct {
	clock *timer.Manual
	times []time.Duration
	args  [][]any
}

func newRecorder() *recorder {
	return &recorder{clock: timer.NewManual(epoch)}
}

func (r *recorder) fn(args ...any) {
	r.times = append(r.times, r.clock.Now().Sub(epoch))
	r.args = append(r.args, args)
}

func mustNew(t *testing.T, host timer.Facility, fn Func, delay time.Duration, args ...any) *Timer {
	t.Helper()
	tm, err := New(host, fn, delay, args...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tm
}

func assertTimes(t *testing.T, r *recorder, want ...time.Duration) {
	t.Helper()
	if len(want) == 0 {
		want = nil
	}
	if !reflect.DeepEqual(r.times, want) {
		t.Errorf("fired at %v, want %v", r.times, want)
	}
}

func TestFiresAfterDelay(t *testing.T) {
	for _, d := range []time.Duration{0, 1 * ms, 50 * ms, time.Second} {
		r := newRecorder()
		tm := mustNew(t, r.clock, r.fn, d)

		if tm.State() != Armed {
			t.Fatalf("state %v after New, want armed", tm.State())
		}
		if d > 0 {
			r.clock.Advance(d - 1)
			assertTimes(t, r)
		}
		r.clock.Advance(d)
		assertTimes(t, r, d)
		if tm.State() != Idle {
			t.Errorf("state %v after firing, want idle", tm.State())
		}
	}
}

func TestRescheduleTimesFromCall(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 50*ms)

	r.clock.Advance(20 * ms)
	if _, err := tm.Reschedule(50 * ms); err != nil {
		t.Fatal(err)
	}
	r.clock.Advance(20 * ms)
	tm.Reschedule(50 * ms)

	r.clock.Advance(49 * ms)
	assertTimes(t, r)
	r.clock.Advance(time.Second)
	assertTimes(t, r, 90*ms)
}

func TestRescheduleEarlier(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 500*ms)

	r.clock.Advance(20 * ms)
	tm.Reschedule(10 * ms)
	r.clock.Advance(time.Second)

	assertTimes(t, r, 30*ms)
}

func TestRestartReusesDelay(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 30*ms)

	r.clock.Advance(10 * ms)
	got, err := tm.Restart()
	if err != nil || got != tm {
		t.Fatalf("Restart returned (%p, %v)", got, err)
	}
	r.clock.Advance(time.Second)

	assertTimes(t, r, 40*ms)
	if tm.Delay() != 30*ms {
		t.Errorf("delay %v, want 30ms", tm.Delay())
	}
}

func TestRescheduleUpdatesDelay(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 30*ms)

	tm.Reschedule(10 * ms)
	r.clock.Advance(10 * ms)
	tm.Restart()
	r.clock.Advance(10 * ms)

	assertTimes(t, r, 10*ms, 20*ms)
}

func TestChaining(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 30*ms)

	got, err := tm.Reschedule(5 * ms)
	if err != nil {
		t.Fatal(err)
	}
	got, _ = got.Reschedule(15 * ms)
	if got != tm {
		t.Fatal("Reschedule did not return the receiver")
	}
	r.clock.Advance(time.Second)
	assertTimes(t, r, 15*ms)
}

func TestClearBeforeFiring(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 20*ms)

	tm.Clear()
	r.clock.Advance(50 * ms)

	assertTimes(t, r)
	if tm.State() != Cleared {
		t.Errorf("state %v, want cleared", tm.State())
	}
	if r.clock.Pending() != 0 {
		t.Errorf("%d handles left after Clear", r.clock.Pending())
	}
}

func TestClearAfterReschedule(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 20*ms)

	r.clock.Advance(10 * ms)
	tm.Reschedule(50 * ms)
	r.clock.Advance(10 * ms)
	tm.Clear()
	r.clock.Advance(time.Second)

	assertTimes(t, r)
}

func TestClearIsTerminal(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 20*ms)

	tm.Clear()
	tm.Clear()
	if _, err := tm.Reschedule(10 * ms); err != nil {
		t.Fatalf("Reschedule on cleared timer: %v", err)
	}
	tm.Restart()
	r.clock.Advance(time.Second)

	assertTimes(t, r)
	if tm.State() != Cleared {
		t.Errorf("state %v, want cleared", tm.State())
	}
	if r.clock.Pending() != 0 {
		t.Errorf("reschedule after clear left %d handles", r.clock.Pending())
	}
}

func TestClearAfterFiring(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 10*ms)

	r.clock.Advance(10 * ms)
	tm.Clear()
	tm.Restart()
	r.clock.Advance(time.Second)

	assertTimes(t, r, 10*ms)
}

func TestRescheduleAfterFiring(t *testing.T) {
	r := newRecorder()
	var tm *Timer
	tm = mustNew(t, r.clock, func(args ...any) {
		r.fn(args...)
		if len(r.times) == 1 {
			tm.Reschedule(20 * ms)
		}
	}, 20*ms)

	r.clock.Advance(time.Second)

	assertTimes(t, r, 20*ms, 40*ms)
	if tm.Fires() != 2 {
		t.Errorf("fires %d, want 2", tm.Fires())
	}
	if tm.State() != Idle {
		t.Errorf("state %v, want idle", tm.State())
	}
}

func TestRescheduleFromIdle(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 10*ms)

	r.clock.Advance(15 * ms)
	tm.Restart()
	if tm.State() != Armed {
		t.Fatalf("state %v after Restart from idle, want armed", tm.State())
	}
	r.clock.Advance(time.Second)

	assertTimes(t, r, 10*ms, 25*ms)
}

func TestArgsForwardedOnEveryFiring(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 20*ms, 42, "x")

	r.clock.Advance(20 * ms)
	tm.Reschedule(5 * ms)
	r.clock.Advance(5 * ms)

	want := [][]any{{42, "x"}, {42, "x"}}
	if !reflect.DeepEqual(r.args, want) {
		t.Errorf("args %v, want %v", r.args, want)
	}
}

func TestSingleLiveHandle(t *testing.T) {
	r := newRecorder()
	tm := mustNew(t, r.clock, r.fn, 20*ms)

	for i := 0; i < 10; i++ {
		tm.Reschedule(time.Duration(i+1) * ms)
		if n := r.clock.Pending(); n != 1 {
			t.Fatalf("%d live handles after reschedule %d", n, i)
		}
	}
	r.clock.Advance(time.Second)
	assertTimes(t, r, 10*ms)
}

func TestInvalidDelay(t *testing.T) {
	r := newRecorder()

	if _, err := New(r.clock, r.fn, -ms); !errors.Is(err, timer.ErrNegativeDelay) {
		t.Fatalf("New with negative delay: got %v", err)
	}
	if _, err := New(r.clock, nil, ms); !errors.Is(err, timer.ErrNilCallback) {
		t.Fatalf("New with nil callback: got %v", err)
	}

	tm := mustNew(t, r.clock, r.fn, 20*ms)
	if _, err := tm.Reschedule(-ms); !errors.Is(err, timer.ErrNegativeDelay) {
		t.Fatalf("Reschedule with negative delay: got %v", err)
	}
	if tm.Delay() != 20*ms {
		t.Errorf("failed reschedule changed delay to %v", tm.Delay())
	}
	if tm.State() != Idle {
		t.Errorf("state %v after failed reschedule, want idle", tm.State())
	}
	r.clock.Advance(time.Second)
	assertTimes(t, r)
}

// staleFacility hands every callback back to the test instead of running it,
// so a firing can be delivered after the handle was replaced.
type staleFacility struct {
	fns []func()
}

func (f *staleFacility) Arm(d time.Duration, fn func()) (timer.Handle, error) {
	f.fns = append(f.fns, fn)
	return timer.Handle(len(f.fns)), nil
}

func (f *staleFacility) Disarm(timer.Handle) {}

func TestStaleFiringSuppressed(t *testing.T) {
	f := &staleFacility{}
	count := 0
	tm := mustNew(t, f, func(...any) { count++ }, 10*ms)

	tm.Reschedule(10 * ms)
	f.fns[0]() // superseded
	if count != 0 {
		t.Fatal("superseded firing ran the callback")
	}

	tm.Clear()
	f.fns[1]() // cleared
	if count != 0 {
		t.Fatal("firing after Clear ran the callback")
	}
}

func TestClearDuringCommittedFiring(t *testing.T) {
	f := &staleFacility{}
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	tm := mustNew(t, f, func(...any) {
		close(entered)
		<-release
	}, 10*ms)

	go func() {
		f.fns[0]()
		close(done)
	}()
	<-entered

	// The firing is past its liveness check; Clear returns while the
	// callback is still running.
	tm.Clear()
	if tm.State() != Cleared {
		t.Errorf("state %v, want cleared", tm.State())
	}
	close(release)
	<-done

	if tm.Fires() != 1 {
		t.Errorf("fires %d, want 1", tm.Fires())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Armed, "armed"},
		{Idle, "idle"},
		{Cleared, "cleared"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/drake/retimer/internal/buffer"
	"github.com/drake/retimer/lua"
	"github.com/drake/retimer/timer"
)

// Ensure Session implements lua.Host at compile time
var _ lua.Host = (*Session)(nil)

// Config holds session configuration
type Config struct {
	InitFile     string    // Script loaded before Scripts; empty skips it
	Scripts      []string  // Script paths, loaded in order after InitFile
	ExitWhenIdle bool      // Return from Run once no timer is pending
	Output       io.Writer // Destination for Print; defaults to os.Stdout
}

// Stats is a snapshot of session state.
type Stats struct {
	EventsProcessed uint64
	QueueLen        int
	Dropped         uint64
	Goroutines      int
	Timer           timer.Stats
	Lua             lua.Stats
}

// Session runs the Lua engine and every timer callback on one goroutine.
// Timer expiries are queued as jobs; a job whose handle was disarmed in the
// meantime does nothing, so a reschedule or clear always wins over a stale
// expiry.
type Session struct {
	engine *lua.Engine
	timers *timer.Service
	jobs   *buffer.Queue[func()]

	config Config
	out    io.Writer
	outMu  sync.Mutex

	processed atomic.Uint64
	luaStats  atomic.Value // lua.Stats, refreshed on the loop

	// Shutdown coordination
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a new Session. It is passive - no goroutines start here
// besides the job queue.
func New(cfg Config) *Session {
	s := &Session{
		jobs:   buffer.New[func()](100, 0),
		config: cfg,
		out:    cfg.Output,
		done:   make(chan struct{}),
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	s.timers = timer.NewService(s.post)
	s.engine = lua.NewEngine(s)
	s.luaStats.Store(lua.Stats{})
	return s
}

// Run boots the engine and processes jobs on the calling goroutine until ctx
// is done, Quit is called, or (with ExitWhenIdle) no timer is pending.
func (s *Session) Run(ctx context.Context) error {
	defer s.shutdown()
	defer s.engine.Close()

	if err := s.boot(); err != nil {
		return err
	}
	s.refreshStats()

	for {
		if s.config.ExitWhenIdle && s.idle() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case job := <-s.jobs.Out():
			job()
			s.processed.Add(1)
			s.refreshStats()
		}
	}
}

// boot loads the VM state.
func (s *Session) boot() error {
	if err := s.engine.Init(); err != nil {
		return err
	}

	paths := s.config.Scripts
	if s.config.InitFile != "" {
		paths = append([]string{s.config.InitFile}, paths...)
	}
	for _, path := range paths {
		if err := s.engine.DoFile(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// idle reports whether nothing can produce another job.
func (s *Session) idle() bool {
	return s.timers.Stats().Active == 0 && s.jobs.Len() == 0
}

// post is the timer Dispatcher: expiries run on the session loop.
func (s *Session) post(job func()) {
	s.jobs.Push(job)
}

func (s *Session) refreshStats() {
	s.luaStats.Store(s.engine.Stats())
}

// shutdown stops timers and the job queue. Safe to call more than once.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.timers.DisarmAll()
		s.jobs.Close()
	})
}

// Stats returns current counters. Safe to call from any goroutine.
func (s *Session) Stats() Stats {
	return Stats{
		EventsProcessed: s.processed.Load(),
		QueueLen:        s.jobs.Len(),
		Dropped:         s.jobs.Dropped(),
		Goroutines:      runtime.NumGoroutine(),
		Timer:           s.timers.Stats(),
		Lua:             s.luaStats.Load().(lua.Stats),
	}
}

// --- Host Implementation ---

// Print writes a line to the configured output.
func (s *Session) Print(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, text)
}

// Quit stops Run.
func (s *Session) Quit() { s.shutdown() }

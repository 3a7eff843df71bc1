// Package debug provides runtime monitoring and diagnostics.
package debug

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/drake/retimer/config"
	"github.com/drake/retimer/session"
)

// StatsSource is anything that reports session statistics.
type StatsSource interface {
	Stats() session.Stats
}

// Monitor periodically logs session statistics when debug mode is enabled.
type Monitor struct {
	source   StatsSource
	interval time.Duration
	ctx      context.Context
	logger   *log.Logger
}

// NewMonitor creates a new monitor for the given session.
// If debug mode is not enabled, returns nil.
func NewMonitor(ctx context.Context, src StatsSource) *Monitor {
	if !config.DebugEnabled() {
		return nil
	}

	return &Monitor{
		source:   src,
		interval: 5 * time.Second,
		ctx:      ctx,
		logger:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Start begins the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	if m == nil {
		return
	}
	go m.run()
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Println("[DEBUG] Monitor started")

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Println("[DEBUG] Monitor stopped")
			return
		case <-ticker.C:
			m.logStats()
		}
	}
}

func (m *Monitor) logStats() {
	s := m.source.Stats()

	m.logger.Printf("[DEBUG] events=%d jobQ=%d dropped=%d goroutines=%d | timers: active=%d fired=%d disarmed=%d | lua: stack=%d retimers=%d debounce=%d",
		s.EventsProcessed,
		s.QueueLen,
		s.Dropped,
		s.Goroutines,
		s.Timer.Active,
		s.Timer.Fired,
		s.Timer.Disarmed,
		s.Lua.StackSize,
		s.Lua.Timers,
		s.Lua.DebounceKeys,
	)
}

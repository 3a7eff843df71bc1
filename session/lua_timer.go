package session

import (
	"time"

	"github.com/drake/retimer/timer"
)

// Arm implements timer.Facility. The callback runs on the session loop.
func (s *Session) Arm(d time.Duration, fn func()) (timer.Handle, error) {
	return s.timers.Arm(d, fn)
}

// Disarm implements timer.Facility.
func (s *Session) Disarm(h timer.Handle) {
	s.timers.Disarm(h)
}

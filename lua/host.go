package lua

import "github.com/drake/retimer/timer"

// Host provides the bridge between Engine and the rest of the system.
// Callbacks armed through the embedded Facility must run on the goroutine
// that owns the Engine.
type Host interface {
	timer.Facility

	// Print outputs text to the user.
	Print(text string)

	// Quit asks the host to stop.
	Quit()
}

package timer

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNegativeDelay is returned by Arm for delays below zero.
	ErrNegativeDelay = errors.New("timer: negative delay")
	// ErrNilCallback is returned by Arm when no callback is given.
	ErrNilCallback = errors.New("timer: nil callback")
)

// Handle identifies one pending callback owned by a Facility.
// The zero value means no handle.
type Handle uint64

// NoHandle is the absent handle.
const NoHandle Handle = 0

// Valid reports whether h refers to an armed (or formerly armed) callback.
func (h Handle) Valid() bool { return h != NoHandle }

// Facility arranges one-shot callbacks and cancels them.
//
// Disarm must be safe to call on a handle that already fired, was already
// disarmed, or was never issued.
type Facility interface {
	Arm(d time.Duration, fn func()) (Handle, error)
	Disarm(h Handle)
}

func validate(d time.Duration, fn func()) error {
	if fn == nil {
		return ErrNilCallback
	}
	if d < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDelay, d)
	}
	return nil
}

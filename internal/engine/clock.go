package engine

import "time"

// Clock abstracts wall time and timer scheduling so expiry behavior can
// be driven by simulated time in tests.
type Clock interface {
	Now() time.Time
	// AfterFunc runs fn in its own goroutine after d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a scheduled callback that can be cancelled. Stop is
// best-effort: a callback already in flight still runs, and the
// generation check in the manager is what keeps it from acting.
type Timer interface {
	Stop() bool
}

type realClock struct{}

// NewClock returns a Clock backed by the time package.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

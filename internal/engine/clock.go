package engine

import "time"

// Timer is a cancellable deferred call, armed via Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. Returns false if it already
	// fired or was stopped.
	Stop() bool
}

// Clock abstracts time for the scheduler so debounce and staleness logic
// can be driven deterministically in tests with a fake clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// realClock is the production Clock backed by the time package.
type realClock struct{}

// NewClock returns the production clock.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{time.AfterFunc(d, f)}
}

type realTimer struct {
	t *time.Timer
}

func (rt realTimer) Stop() bool {
	return rt.t.Stop()
}

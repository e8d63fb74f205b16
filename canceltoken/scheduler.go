package canceltoken

import "time"

// Scheduler arms deferred work. It exists so that time-based cancellation
// is an injected dependency: production code passes SystemScheduler, tests
// pass a manual scheduler and fire it deterministically.
type Scheduler interface {
	// AfterFunc runs fn after d elapses and returns a stop function that
	// disarms the pending call, reporting whether it did so before fn ran.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// SystemScheduler schedules on the runtime timer wheel via time.AfterFunc.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, fn)
	return t.Stop
}

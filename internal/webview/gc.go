package webview

import (
	"sync"
	"time"
)

// Scheduler defers a function call. The engine schedules collection sweeps
// through it so tests can fire timers by hand instead of waiting on the
// wall clock.
type Scheduler interface {
	ScheduleOnce(d time.Duration, fn func())
}

// TimerScheduler is the wall-clock Scheduler.
type TimerScheduler struct{}

// ScheduleOnce runs fn after d on a timer goroutine.
func (TimerScheduler) ScheduleOnce(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// gcDriver schedules deferred collection sweeps. The pending flag is the
// only mutable state outside the world and guarantees at most one
// outstanding sweep timer; releases while one is pending do not stack.
type gcDriver struct {
	delay     time.Duration
	scheduler Scheduler
	sweep     func()

	mu      sync.Mutex
	pending bool
}

// schedule arms the sweep timer unless one is already pending.
func (d *gcDriver) schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		return
	}
	d.pending = true
	d.scheduler.ScheduleOnce(d.delay, d.fire)
}

// fire clears the pending flag before sweeping, so a release processed
// during the sweep can arm the next timer.
func (d *gcDriver) fire() {
	d.mu.Lock()
	d.pending = false
	d.mu.Unlock()
	d.sweep()
}

package infill

import (
	"sync"
	"time"
)

// Debouncer delays automatic completion requests so a burst of keystrokes
// issues at most one request. Explicit, user-invoked requests bypass the
// delay entirely.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn. An explicit trigger cancels any pending automatic
// request and runs fn immediately. An automatic trigger supersedes the
// previous pending one and fires after the delay unless superseded or
// cancelled first.
func (d *Debouncer) Trigger(explicit bool, fn func()) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if explicit {
		d.mu.Unlock()
		fn()
		return
	}
	d.timer = time.AfterFunc(d.delay, fn)
	d.mu.Unlock()
}

// Cancel drops any pending automatic request without issuing it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

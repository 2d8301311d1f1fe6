package touch

import (
	"sync"
	"time"
)

// DefaultDebounceWait is used when NewDebouncer is given a zero wait.
const DefaultDebounceWait = 200 * time.Millisecond

type stopper interface {
	Stop() bool
}

// Debouncer delays calls to fn until wait has elapsed since the last Call.
//
// In trailing mode (immediate == false) fn runs once, wait after the last
// Call of a burst. In leading mode fn runs on the first Call of a burst and
// further calls are swallowed until the burst has been quiet for wait.
//
// fn runs on the timer goroutine in trailing mode and on the caller's
// goroutine in leading mode. Debouncer is safe for concurrent use.
type Debouncer struct {
	fn        func()
	wait      time.Duration
	immediate bool

	mu      sync.Mutex
	timer   stopper
	gen     uint64
	afterFn func(time.Duration, func()) stopper
}

// NewDebouncer creates a Debouncer for fn.
func NewDebouncer(fn func(), wait time.Duration, immediate bool) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounceWait
	}
	return &Debouncer{
		fn:        fn,
		wait:      wait,
		immediate: immediate,
		afterFn: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// Call registers an invocation and restarts the quiet period.
func (d *Debouncer) Call() {
	d.mu.Lock()
	callNow := d.immediate && d.timer == nil
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.afterFn(d.wait, func() { d.expire(gen) })
	d.mu.Unlock()

	if callNow && d.fn != nil {
		d.fn()
	}
}

// Cancel drops any pending trailing call and ends the current burst.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Flush runs a pending trailing call immediately. It reports whether a call
// was pending. In leading mode Flush only ends the burst.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	pending := d.timer != nil && !d.immediate
	d.stopLocked()
	d.mu.Unlock()

	if pending && d.fn != nil {
		d.fn()
	}
	return pending
}

// Pending reports whether a burst is in progress.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	trailing := !d.immediate
	d.mu.Unlock()

	if trailing && d.fn != nil {
		d.fn()
	}
}

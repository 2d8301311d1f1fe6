package touch

import (
	"sync/atomic"
	"testing"
	"time"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock records scheduled timers so tests can fire them by hand.
type fakeClock struct {
	timers []*fakeTimer
	waits  []time.Duration
}

func (c *fakeClock) after(d time.Duration, fn func()) stopper {
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	c.waits = append(c.waits, d)
	return t
}

// fireLast runs the most recently scheduled timer, as if wait elapsed.
func (c *fakeClock) fireLast() {
	c.timers[len(c.timers)-1].fn()
}

func newTestDebouncer(fn func(), wait time.Duration, immediate bool) (*Debouncer, *fakeClock) {
	d := NewDebouncer(fn, wait, immediate)
	clock := &fakeClock{}
	d.afterFn = clock.after
	return d, clock
}

func TestDebouncer_Trailing(t *testing.T) {
	calls := 0
	d, clock := newTestDebouncer(func() { calls++ }, 0, false)

	d.Call()
	d.Call()
	d.Call()
	if calls != 0 {
		t.Fatalf("calls = %d before wait elapsed", calls)
	}
	if clock.waits[0] != DefaultDebounceWait {
		t.Errorf("wait = %v, want %v", clock.waits[0], DefaultDebounceWait)
	}
	for i, tm := range clock.timers[:2] {
		if !tm.stopped {
			t.Errorf("timer %d not stopped by later call", i)
		}
	}

	// A superseded timer firing late must not run fn.
	clock.timers[0].fn()
	if calls != 0 {
		t.Fatalf("stale timer ran fn")
	}

	clock.fireLast()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if d.Pending() {
		t.Error("still pending after fire")
	}
}

func TestDebouncer_Leading(t *testing.T) {
	calls := 0
	d, clock := newTestDebouncer(func() { calls++ }, 50*time.Millisecond, true)

	d.Call()
	d.Call()
	d.Call()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 on leading edge", calls)
	}

	clock.fireLast()
	if calls != 1 {
		t.Errorf("leading mode ran fn on trailing edge")
	}

	d.Call()
	if calls != 2 {
		t.Errorf("calls = %d, want 2 after quiet period", calls)
	}
}

func TestDebouncer_CancelAndFlush(t *testing.T) {
	calls := 0
	d, clock := newTestDebouncer(func() { calls++ }, time.Second, false)

	d.Call()
	d.Cancel()
	clock.fireLast()
	if calls != 0 {
		t.Errorf("cancelled call ran")
	}

	d.Call()
	if !d.Flush() {
		t.Error("Flush() = false with pending call")
	}
	if calls != 1 {
		t.Errorf("calls = %d after flush, want 1", calls)
	}
	if d.Flush() {
		t.Error("second Flush() reported pending")
	}
	clock.fireLast()
	if calls != 1 {
		t.Errorf("flushed timer ran again")
	}
}

func TestDebouncer_RealTimer(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	d := NewDebouncer(func() {
		if calls.Add(1) == 1 {
			close(done)
		}
	}, 10*time.Millisecond, false)

	d.Call()
	d.Call()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

package refresh

import (
	"sync"
	"time"
)

// Clock is the scheduler's view of time.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a one-shot timer.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{time.NewTimer(d)}
}

type systemTimer struct{ t *time.Timer }

func (s systemTimer) C() <-chan time.Time { return s.t.C }
func (s systemTimer) Stop() bool          { return s.t.Stop() }

// FakeClock only moves when told to. Timers fire during Advance and Set.
type FakeClock struct {
	mu     sync.Mutex
	cond   *sync.Cond
	now    time.Time
	timers []*fakeTimer
}

func NewFakeClock(now time.Time) *FakeClock {
	f := &FakeClock{now: now}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeClock) NewTimer(d time.Duration) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTimer{clock: f, at: f.now.Add(d), c: make(chan time.Time, 1)}
	if d <= 0 {
		t.c <- f.now
		t.done = true
		return t
	}
	f.timers = append(f.timers, t)
	f.cond.Broadcast()
	return t
}

// Advance moves the clock forward and fires every timer that came due.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.setLocked(f.now.Add(d))
	f.mu.Unlock()
}

// Set jumps the clock to t, firing due timers. Moving backwards fires nothing.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	f.setLocked(t)
	f.mu.Unlock()
}

func (f *FakeClock) setLocked(t time.Time) {
	f.now = t
	pending := f.timers[:0]
	for _, timer := range f.timers {
		if timer.done {
			continue
		}
		if !timer.at.After(t) {
			timer.done = true
			timer.c <- t
			continue
		}
		pending = append(pending, timer)
	}
	f.timers = pending
	f.cond.Broadcast()
}

// BlockUntil waits until n timers are armed.
func (f *FakeClock) BlockUntil(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.armedLocked() < n {
		f.cond.Wait()
	}
}

// Armed returns the number of timers that have neither fired nor stopped.
func (f *FakeClock) Armed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.armedLocked()
}

func (f *FakeClock) armedLocked() int {
	n := 0
	for _, t := range f.timers {
		if !t.done {
			n++
		}
	}
	return n
}

type fakeTimer struct {
	clock *FakeClock
	at    time.Time
	c     chan time.Time
	done  bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.c }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.clock.cond.Broadcast()
	return true
}

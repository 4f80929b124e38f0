package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliplan/planboard/internal/source"
)

func at(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.Local)
}

func TestNextMidnight(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"afternoon", at(2025, 8, 27, 15, 0, 0), at(2025, 8, 28, 0, 0, 0)},
		{"exactly midnight", at(2025, 8, 28, 0, 0, 0), at(2025, 8, 29, 0, 0, 0)},
		{"year end", at(2025, 12, 31, 23, 0, 0), at(2026, 1, 1, 0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextMidnight(tt.now)), "got %s", NextMidnight(tt.now))
		})
	}
}

func TestNextMidnightSkippedByClockChange(t *testing.T) {
	loc, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skipf("zone unavailable: %v", err)
	}

	// Chile moves from -04 to -03 at 00:00 on 2025-09-07, so that day
	// starts at 01:00.
	now := time.Date(2025, 9, 6, 12, 0, 0, 0, loc)
	want := time.Date(2025, 9, 7, 4, 0, 0, 0, time.UTC)

	got := NextMidnight(now)
	assert.True(t, want.Equal(got), "got %s", got)
	assert.Equal(t, "2025-09-07", got.In(loc).Format("2006-01-02"))

	after := NextMidnight(got)
	assert.Equal(t, "2025-09-08 00:00", after.In(loc).Format("2006-01-02 15:04"))
}

func TestDelayUntilMidnightFloor(t *testing.T) {
	almost := time.Date(2025, 8, 27, 23, 59, 59, 500_000_000, time.Local)
	assert.Equal(t, time.Second, DelayUntilMidnight(almost, time.Second))
	assert.Equal(t, time.Second, DelayUntilMidnight(almost, 0))
	assert.Equal(t, 9*time.Hour, DelayUntilMidnight(at(2025, 8, 27, 15, 0, 0), time.Second))
}

type harness struct {
	clock    *FakeClock
	sched    *Scheduler
	triggers chan Trigger
	cancel   context.CancelFunc
	done     chan error
}

func startHarness(t *testing.T, now time.Time, poll time.Duration) *harness {
	t.Helper()

	h := &harness{
		clock:    NewFakeClock(now),
		triggers: make(chan Trigger, 8),
		done:     make(chan error, 1),
	}
	h.sched = NewScheduler(h.clock, Options{PollInterval: poll})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.done <- h.sched.Run(ctx, func(tr Trigger) { h.triggers <- tr })
	}()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})

	h.clock.BlockUntil(2)
	return h
}

func (h *harness) next(t *testing.T) Trigger {
	t.Helper()
	select {
	case tr := <-h.triggers:
		return tr
	case <-time.After(2 * time.Second):
		t.Fatal("no trigger")
		return Trigger{}
	}
}

func TestSchedulerMidnightReschedules(t *testing.T) {
	h := startHarness(t, at(2025, 8, 27, 23, 59, 30), 100*time.Hour)

	h.clock.Advance(30 * time.Second)
	tr := h.next(t)
	assert.Equal(t, ReasonMidnight, tr.Reason)
	assert.Equal(t, "2025-08-28", tr.Today)

	h.clock.BlockUntil(2)
	h.clock.Advance(12 * time.Hour)
	select {
	case tr := <-h.triggers:
		t.Fatalf("unexpected trigger %v", tr.Reason)
	case <-time.After(50 * time.Millisecond):
	}

	h.clock.Advance(12 * time.Hour)
	tr = h.next(t)
	assert.Equal(t, ReasonMidnight, tr.Reason)
	assert.Equal(t, "2025-08-29", tr.Today)
}

func TestSchedulerPolls(t *testing.T) {
	h := startHarness(t, at(2025, 8, 27, 10, 0, 0), time.Minute)

	for i := 1; i <= 3; i++ {
		h.clock.Advance(time.Minute)
		tr := h.next(t)
		assert.Equal(t, ReasonPoll, tr.Reason)
		assert.Equal(t, "2025-08-27", tr.Today)
		assert.True(t, tr.At.Equal(at(2025, 8, 27, 10, i, 0)))
		h.clock.BlockUntil(2)
	}
}

func TestSchedulerExternalTriggers(t *testing.T) {
	h := startHarness(t, at(2025, 8, 27, 10, 0, 0), time.Hour)

	h.sched.Focus()
	assert.Equal(t, ReasonFocus, h.next(t).Reason)

	h.sched.Visible()
	assert.Equal(t, ReasonVisible, h.next(t).Reason)

	h.sched.FileChanged("/tmp/bundle.json")
	tr := h.next(t)
	assert.Equal(t, ReasonFileChanged, tr.Reason)
	assert.Equal(t, "/tmp/bundle.json", tr.Path)
	assert.Equal(t, "2025-08-27", tr.Today)
}

func TestSchedulerFocusAfterSleepSeesNewDay(t *testing.T) {
	h := startHarness(t, at(2025, 8, 27, 22, 0, 0), 100*time.Hour)

	// Jumping past midnight fires the midnight timer, and a focus afterwards
	// reads the new date too.
	h.clock.Set(at(2025, 8, 28, 7, 0, 0))
	tr := h.next(t)
	assert.Equal(t, ReasonMidnight, tr.Reason)
	assert.Equal(t, "2025-08-28", tr.Today)

	h.sched.Focus()
	tr = h.next(t)
	assert.Equal(t, ReasonFocus, tr.Reason)
	assert.Equal(t, "2025-08-28", tr.Today)
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	h := startHarness(t, at(2025, 8, 27, 10, 0, 0), time.Minute)
	h.cancel()

	select {
	case err := <-h.done:
		assert.True(t, errors.Is(err, context.Canceled))
		h.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 0, h.clock.Armed())
}

type fakeWatchable struct {
	ch      chan source.FileChangeEvent
	stopped chan struct{}
}

func (f *fakeWatchable) WatchFiles() (<-chan source.FileChangeEvent, error) { return f.ch, nil }
func (f *fakeWatchable) StopWatching() error {
	close(f.stopped)
	return nil
}

func TestSchedulerWatch(t *testing.T) {
	h := startHarness(t, at(2025, 8, 27, 10, 0, 0), time.Hour)
	w := &fakeWatchable{ch: make(chan source.FileChangeEvent, 1), stopped: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.sched.Watch(ctx, w))

	w.ch <- source.FileChangeEvent{Path: "plan.ics"}
	tr := h.next(t)
	assert.Equal(t, ReasonFileChanged, tr.Reason)
	assert.Equal(t, "plan.ics", tr.Path)

	cancel()
	select {
	case <-w.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

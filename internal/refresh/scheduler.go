// Package refresh decides when the schedule must be rebuilt: at local
// midnight, on a fixed poll, and when the user comes back to the app or a
// source file changes.
package refresh

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/source"
)

const (
	DefaultPollInterval = 60 * time.Second
	DefaultMinDelay     = time.Second
)

var midnightSchedule = mustParse("0 0 * * *")

func mustParse(spec string) cron.Schedule {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// NextMidnight returns the first instant of the day after now. Where a
// clock change skips 00:00 that is the end of the gap, not the next day's
// midnight the cron schedule would pick.
func NextMidnight(now time.Time) time.Time {
	next := midnightSchedule.Next(now)
	if start := startOfNextDay(now); start.Before(next) {
		return start
	}
	return next
}

func startOfNextDay(now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()
	start := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	// Noon always exists, so it names the wanted date.
	wy, wm, wd := time.Date(y, m, d+1, 12, 0, 0, 0, loc).Date()
	if sy, sm, sd := start.Date(); sy != wy || sm != wm || sd != wd {
		// 00:00 fell into a gap and was resolved to the evening before;
		// the day starts when that zone period ends.
		_, end := start.ZoneBounds()
		return end
	}
	return start
}

// DelayUntilMidnight is the wait until NextMidnight, never less than floor.
func DelayUntilMidnight(now time.Time, floor time.Duration) time.Duration {
	if floor <= 0 {
		floor = DefaultMinDelay
	}
	d := NextMidnight(now).Sub(now)
	if d < floor {
		return floor
	}
	return d
}

type Reason string

const (
	ReasonMidnight    Reason = "midnight"
	ReasonPoll        Reason = "poll"
	ReasonFocus       Reason = "focus"
	ReasonVisible     Reason = "visible"
	ReasonFileChanged Reason = "file-changed"
)

// Trigger asks for a catch-up rebuild. Today is the current date as read by
// the scheduler when the trigger fired.
type Trigger struct {
	Reason Reason
	At     time.Time
	Today  string
	Path   string
}

type Options struct {
	PollInterval time.Duration
	MinDelay     time.Duration
	Logger       *log.Logger
}

// Scheduler emits Triggers until its context ends. The midnight timer is
// re-armed after every firing because the length of a day is not fixed.
type Scheduler struct {
	clock    Clock
	poll     time.Duration
	minDelay time.Duration
	logger   *log.Logger
	external chan Trigger
}

func NewScheduler(clock Clock, opts Options) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MinDelay <= 0 {
		opts.MinDelay = DefaultMinDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Scheduler{
		clock:    clock,
		poll:     opts.PollInterval,
		minDelay: opts.MinDelay,
		logger:   opts.Logger,
		external: make(chan Trigger, 16),
	}
}

// Today reads the current date from the scheduler's clock.
func (s *Scheduler) Today() string {
	return dates.ISODate(s.clock.Now())
}

func (s *Scheduler) Focus()   { s.inject(Trigger{Reason: ReasonFocus}) }
func (s *Scheduler) Visible() { s.inject(Trigger{Reason: ReasonVisible}) }

func (s *Scheduler) FileChanged(path string) {
	s.inject(Trigger{Reason: ReasonFileChanged, Path: path})
}

func (s *Scheduler) inject(t Trigger) {
	select {
	case s.external <- t:
	default:
		// A catch-up is already queued
		s.logger.Debug("dropping refresh trigger", "reason", t.Reason)
	}
}

// Watch forwards change events from file-backed sources until ctx ends.
func (s *Scheduler) Watch(ctx context.Context, w source.Watchable) error {
	ch, err := w.WatchFiles()
	if err != nil {
		return err
	}
	go func() {
		defer w.StopWatching()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				s.FileChanged(ev.Path)
			}
		}
	}()
	return nil
}

// Run emits triggers to fn, one at a time, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, fn func(Trigger)) error {
	now := s.clock.Now()
	target := NextMidnight(now)
	midnight := s.clock.NewTimer(DelayUntilMidnight(now, s.minDelay))
	poll := s.clock.NewTimer(s.poll)
	defer func() {
		midnight.Stop()
		poll.Stop()
	}()

	s.logger.Debug("refresh scheduler started", "next_midnight", target, "poll", s.poll)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-midnight.C():
			now := s.clock.Now()
			// A timer may fire a hair early; the date is that of the
			// midnight we were waiting for.
			if now.Before(target) {
				now = target
			}
			fn(Trigger{Reason: ReasonMidnight, At: now, Today: dates.ISODate(now)})

			target = NextMidnight(now)
			midnight = s.clock.NewTimer(s.until(target))
			s.logger.Debug("midnight timer re-armed", "next_midnight", target)

		case <-poll.C():
			now := s.clock.Now()
			fn(Trigger{Reason: ReasonPoll, At: now, Today: dates.ISODate(now)})
			poll = s.clock.NewTimer(s.poll)

		case t := <-s.external:
			t.At = s.clock.Now()
			t.Today = dates.ISODate(t.At)
			fn(t)
		}
	}
}

func (s *Scheduler) until(t time.Time) time.Duration {
	d := t.Sub(s.clock.Now())
	if d < s.minDelay {
		return s.minDelay
	}
	return d
}

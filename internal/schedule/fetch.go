package schedule

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/intelliplan/planboard/internal/source"
)

// SourceFailure records one source that could not be read.
type SourceFailure struct {
	Kind Kind
	Err  error
}

func (f SourceFailure) Error() string {
	return fmt.Sprintf("%s source: %v", f.Kind, f.Err)
}

func (f SourceFailure) Unwrap() error { return f.Err }

// FetchReport describes how a fetch went. A fetch never fails as a whole.
type FetchReport struct {
	Range    source.Range
	Failures []SourceFailure
	Elapsed  time.Duration
}

func (r FetchReport) OK() bool { return len(r.Failures) == 0 }

// Failed reports whether the source for kind failed.
func (r FetchReport) Failed(kind Kind) bool {
	for _, f := range r.Failures {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

// Fetch reads all four sources concurrently and waits for every one of them.
// A source that errors, panics or is missing contributes an empty list.
func Fetch(ctx context.Context, srcs source.Sources, r source.Range, logger *log.Logger) (source.Records, FetchReport) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	begin := time.Now()

	var (
		recs source.Records
		errs [4]error
		g    errgroup.Group
	)

	g.Go(func() error {
		errs[0] = guard(func() (err error) {
			if srcs.Events != nil {
				recs.Events, err = srcs.Events.Events(ctx, r)
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		errs[1] = guard(func() (err error) {
			if srcs.Tasks != nil {
				recs.Tasks, err = srcs.Tasks.Tasks(ctx)
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		errs[2] = guard(func() (err error) {
			if srcs.Classes != nil {
				recs.Classes, err = srcs.Classes.Classes(ctx, source.ClassViewCurrent)
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		errs[3] = guard(func() (err error) {
			if srcs.Exams != nil {
				recs.Exams, err = srcs.Exams.Exams(ctx, r)
			}
			return err
		})
		return nil
	})
	_ = g.Wait()

	report := FetchReport{Range: r, Elapsed: time.Since(begin)}
	for i, kind := range []Kind{KindEvent, KindTask, KindClass, KindExam} {
		if errs[i] == nil {
			continue
		}
		logger.Warn("source fetch failed", "source", kind, "range", r.String(), "err", errs[i])
		report.Failures = append(report.Failures, SourceFailure{Kind: kind, Err: errs[i]})
		switch kind {
		case KindEvent:
			recs.Events = nil
		case KindTask:
			recs.Tasks = nil
		case KindClass:
			recs.Classes = nil
		case KindExam:
			recs.Exams = nil
		}
	}

	return recs, report
}

func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("source panicked: %v", p)
		}
	}()
	return fn()
}

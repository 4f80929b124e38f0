package cmd

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/intelliplan/planboard/internal/config"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/source"
)

const httpTimeout = 30 * time.Second

// openedSources is the adapter set chosen by the config, plus what has to
// be watched and closed.
type openedSources struct {
	source.Sources
	watchables []source.Watchable
	closers    []io.Closer
}

func openSources(cfg *config.Config, logger *log.Logger) (*openedSources, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &openedSources{}
	switch cfg.Source {
	case config.SourceHTTP:
		c, err := source.NewHTTPClient(cfg.BaseURL, source.HTTPOptions{
			Token:          cfg.Token,
			RequestsPerSec: cfg.RequestsPerSec,
			Timeout:        httpTimeout,
		})
		if err != nil {
			return nil, err
		}
		o.Sources = source.All(c)

	case config.SourceSQLite:
		store, err := source.OpenStore(cfg.DBPath, logger)
		if err != nil {
			return nil, err
		}
		o.Sources = source.All(store)
		o.closers = append(o.closers, store)

	case config.SourceBundle:
		b := source.NewBundleFile(cfg.BundlePath, logger)
		o.Sources = source.All(b)
		o.watchables = append(o.watchables, b)

	case config.SourceICS:
		f := source.NewICSFile(cfg.ICSPath, logger)
		o.Events = f
		o.watchables = append(o.watchables, f)
		if cfg.BundlePath != "" {
			b := source.NewBundleFile(cfg.BundlePath, logger)
			o.Tasks, o.Classes, o.Exams = b, b, b
			o.watchables = append(o.watchables, b)
		}
	}
	return o, nil
}

// watch forwards file changes to the scheduler. A source that cannot be
// watched is logged and skipped.
func (o *openedSources) watch(ctx context.Context, s *refresh.Scheduler, logger *log.Logger) {
	for _, w := range o.watchables {
		if err := s.Watch(ctx, w); err != nil {
			logger.Warn("cannot watch source", "err", err)
		}
	}
}

func (o *openedSources) Close() error {
	var errs []error
	for _, w := range o.watchables {
		errs = append(errs, w.StopWatching())
	}
	for _, c := range o.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

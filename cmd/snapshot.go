package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/intelliplan/planboard/internal/config"
	"github.com/intelliplan/planboard/internal/dates"
	"github.com/intelliplan/planboard/internal/logging"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/parser"
	"github.com/intelliplan/planboard/internal/planner"
)

const defaultWidth = 80

// terminalWidth is the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w < 40 {
		return defaultWidth
	}
	return w
}

// resolveDate reads an ISO date or a natural expression such as "tomorrow"
// or "next fri". Empty means now.
func resolveDate(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return dates.StartOfDay(now), nil
	}
	p := parser.NewDateParser()
	p.SetNow(now)
	return p.Parse(expr)
}

// snapshot loads date through the engine and returns what it rendered.
// The engine keeps the loaded records.
func snapshot(ctx context.Context, cfg *config.Config, mode navigation.Mode, date string) (*planner.Snapshot, *planner.Engine, error) {
	logger := logging.New(os.Stderr, cfg.LogLevel)

	now := time.Now()
	day, err := resolveDate(date, now)
	if err != nil {
		return nil, nil, err
	}

	srcs, err := openSources(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	defer srcs.Close()

	snap := &planner.Snapshot{}
	engine := planner.New(srcs.Sources, snap, navigation.New(now, mode), planner.Options{
		Schedule: cfg.ScheduleOptions(),
		Logger:   logger,
	})
	engine.Do(ctx, engine.SelectDate(dates.ISODate(day)))

	for _, kind := range snap.Day.Failed {
		logger.Warn("could not load records", "kind", kind)
	}
	return snap, engine, nil
}

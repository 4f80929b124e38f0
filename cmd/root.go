package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/intelliplan/planboard/internal/config"
	"github.com/intelliplan/planboard/internal/logging"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/planner"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/ui"
)

var (
	cfgFile    string
	sourceName string
	bundlePath string
	dbPath     string
	icsPath    string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "planboard",
	Short: "A terminal planner for events, tasks, classes and exams",
	Long: `Planboard merges calendar events, tasks, class schedules and exams into
one hour-by-hour view, with week and month overviews. Records come from the
planner's HTTP API, a local SQLite database, a JSON bundle or an iCalendar file.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runTUI,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Config file (default: search the usual locations)")
	pf.StringVarP(&sourceName, "source", "s", "", "Record source: http, sqlite, bundle or ics")
	pf.StringVar(&bundlePath, "bundle", "", "JSON bundle file")
	pf.StringVar(&dbPath, "db", "", "SQLite database file")
	pf.StringVar(&icsPath, "ics", "", "iCalendar file supplying events")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the config file and lays the command-line overrides over it.
func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = sourceName
	}
	if flags.Changed("bundle") {
		cfg.BundlePath = bundlePath
	}
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("ics") {
		cfg.ICSPath = icsPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	cfg.Normalize()
	return nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// The terminal belongs to the UI, so logs go to a file.
	logger, closer, err := logging.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srcs, err := openSources(cfg, logger)
	if err != nil {
		return err
	}
	defer srcs.Close()

	mode, err := navigation.ParseMode(cfg.StartupView)
	if err != nil {
		mode = navigation.ModeDay
	}

	scheduler := refresh.NewScheduler(refresh.SystemClock{}, refresh.Options{
		PollInterval: cfg.PollInterval,
		MinDelay:     cfg.MidnightFloor,
		Logger:       logger,
	})
	engine := planner.New(srcs.Sources, nil, navigation.New(time.Now(), mode), planner.Options{
		Schedule: cfg.ScheduleOptions(),
		Logger:   logger,
	})
	model := ui.NewModel(ctx, cfg, engine, ui.Options{Scheduler: scheduler, Logger: logger})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))

	if cfg.WatchFiles {
		srcs.watch(ctx, scheduler, logger)
	}
	go func() {
		_ = scheduler.Run(ctx, func(t refresh.Trigger) {
			p.Send(ui.TriggerMsg{Trigger: t})
		})
	}()

	logger.Info("starting planboard", "source", cfg.Source, "view", mode)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

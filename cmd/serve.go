package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/intelliplan/planboard/internal/logging"
	"github.com/intelliplan/planboard/internal/navigation"
	"github.com/intelliplan/planboard/internal/planner"
	"github.com/intelliplan/planboard/internal/refresh"
	"github.com/intelliplan/planboard/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the day, week and month views as JSON over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Address to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("listen") {
		cfg.Listen = serveListen
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srcs, err := openSources(cfg, logger)
	if err != nil {
		return err
	}
	defer srcs.Close()

	engine := planner.New(srcs.Sources, nil, navigation.New(time.Now(), navigation.ModeDay), planner.Options{
		Schedule: cfg.ScheduleOptions(),
		Logger:   logger,
	})
	srv := web.NewServer(engine, logger)

	scheduler := refresh.NewScheduler(refresh.SystemClock{}, refresh.Options{
		PollInterval: cfg.PollInterval,
		MinDelay:     cfg.MidnightFloor,
		Logger:       logger,
	})
	if cfg.WatchFiles {
		srcs.watch(ctx, scheduler, logger)
	}
	go func() {
		_ = scheduler.Run(ctx, func(t refresh.Trigger) {
			logger.Debug("catching up", "reason", t.Reason, "today", t.Today)
			srv.CatchUp(ctx, t)
		})
	}()

	return srv.ListenAndServe(ctx, cfg.Listen)
}

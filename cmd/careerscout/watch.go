package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/careerscout/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run batches on the configured interval",
	Long:  "Runs a batch immediately and then every schedule.interval; blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	lk, err := acquireLock(cfg.Output.Path)
	if err != nil {
		return err
	}
	defer lk.Unlock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("config loaded",
		"interval", cfg.Schedule.Interval.String(),
		"keyword", cfg.Query.Keyword,
		"retention", cfg.Store.Retention.String(),
	)

	task := func(ctx context.Context) error {
		_, err := a.pipeline.Execute(ctx, queryFrom(cfg))
		return err
	}

	var cleaner scheduler.Cleaner
	if a.sinks.sqlite != nil {
		cleaner = a.sinks.sqlite
	}

	sched := scheduler.NewScheduler(task, cfg.Schedule.Interval, cleaner, cfg.Store.Retention, logger)
	if err := sched.Run(ctx); err != nil {
		return err
	}

	logger.Info("goodbye")
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/careerscout/internal/config"
	"github.com/amishk599/careerscout/internal/pipeline"
)

var (
	dryRun    bool
	outputArg string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one discovery batch",
	Long: "Discovers jobs through the source cascade, finds each company's career page and open position, " +
		"writes the JSON artifact, saves to the configured stores and sends a summary.",
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "process one batch without writing the artifact or the stores")
	runCmd.Flags().StringVarP(&outputArg, "output", "o", "", "artifact path (overrides output.path)")
	rootCmd.AddCommand(runCmd)
}

// app is a fully wired batch pipeline plus everything that must be closed.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	enrich   *enrichment
	sinks    *sinks
}

func (a *app) Close() error {
	return errors.Join(a.sinks.Close(), a.enrich.Close())
}

func buildApp(ctx context.Context, cfg *config.Config, dry bool, logger *slog.Logger) (*app, error) {
	enrich, err := buildEnrichment(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	orch, err := buildOrchestrator(cfg, enrich, logger)
	if err != nil {
		enrich.Close()
		return nil, err
	}
	sk, err := buildSinks(ctx, cfg, dry, logger)
	if err != nil {
		enrich.Close()
		return nil, err
	}

	p := pipeline.New(orch, setupFilter(cfg), enrich.runner, sk.sink, setupNotifier(cfg, enrich.http, logger), logger)
	if !dry {
		p.WithRecorder(reportRecorder{path: cfg.Output.Path, source: cfg.Output.SourceLabel, logger: logger})
	}
	return &app{cfg: cfg, pipeline: p, enrich: enrich, sinks: sk}, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if outputArg != "" {
		cfg.Output.Path = outputArg
	}

	if !dryRun {
		lk, err := acquireLock(cfg.Output.Path)
		if err != nil {
			return err
		}
		defer lk.Unlock()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, dryRun, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("starting batch",
		"keyword", cfg.Query.Keyword,
		"location", cfg.Query.Location,
		"limit", cfg.Query.Limit,
	)

	b, err := a.pipeline.Execute(ctx, queryFrom(cfg))
	if err != nil {
		// Partial results were already recorded and delivered.
		logger.Warn("batch interrupted", "processed", len(b.Results), "error", err)
		return nil
	}
	if b.Exhausted {
		logger.Warn("no jobs discovered: all sources exhausted")
	}
	return nil
}

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/careerscout/internal/model"
	"github.com/amishk599/careerscout/internal/report"
)

var completeOutput string

var completeCmd = &cobra.Command{
	Use:   "complete [artifact]",
	Short: "Re-process the incomplete results of an artifact",
	Long: "Loads an artifact (default output.path), re-runs company, career page and position lookup for every " +
		"result that is not complete, and writes the document back with metadata.completed_at set.",
	Args: cobra.MaximumNArgs(1),
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVarP(&completeOutput, "output", "o", "", "write the completed document here instead of in place")
	rootCmd.AddCommand(completeCmd)
}

func runComplete(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	in := cfg.Output.Path
	if len(args) == 1 {
		in = args[0]
	}
	out := in
	if completeOutput != "" {
		out = completeOutput
	}

	lk, err := acquireLock(out)
	if err != nil {
		return err
	}
	defer lk.Unlock()

	doc, err := report.Load(in)
	if err != nil {
		return err
	}
	before := doc.Counts()
	logger.Info("loaded artifact",
		"path", in,
		"total", doc.Metadata.TotalJobs,
		"complete", before[model.StatusComplete],
		"incomplete", doc.Metadata.TotalJobs-before[model.StatusComplete],
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enrich, err := buildEnrichment(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer enrich.Close()

	results, runErr := enrich.runner.Complete(ctx, doc.PipelineResults())
	doc.SetResults(results)
	if runErr == nil {
		doc.MarkCompleted(time.Now())
	} else {
		logger.Warn("completion interrupted, saving progress", "error", runErr)
	}

	if err := report.Write(out, doc); err != nil {
		return err
	}

	after := doc.Counts()
	logger.Info("completion written",
		"path", out,
		"complete_before", before[model.StatusComplete],
		"complete_after", after[model.StatusComplete],
		"partial", after[model.StatusPartial],
		"failed", after[model.StatusCompanyExtractionFailed],
	)
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/careerscout/internal/report"
	"github.com/amishk599/careerscout/internal/review"
)

var reviewNoRecheck bool

var reviewCmd = &cobra.Command{
	Use:   "review [artifact]",
	Short: "Browse an artifact interactively",
	Long: "Opens a terminal UI over an artifact (default output.path). Pick a status, browse results, " +
		"press o to open a link and c to re-check an incomplete result. Re-checked results are written back.",
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewNoRecheck, "read-only", false, "disable re-checking and never write the artifact")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	path := cfg.Output.Path
	if len(args) == 1 {
		path = args[0]
	}
	doc, err := report.Load(path)
	if err != nil {
		return err
	}

	var rechecker review.Rechecker
	if !reviewNoRecheck {
		enrich, err := buildEnrichment(context.Background(), cfg, quietLogger())
		if err != nil {
			return err
		}
		defer enrich.Close()
		rechecker = enrich.runner
	}

	results := doc.PipelineResults()
	changed := 0
	for {
		status, ok, err := review.RunStatusPicker(doc.Counts(), len(results))
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		out, err := review.RunReviewTUI(results, status, rechecker)
		if err != nil {
			return err
		}
		results = out.Results
		changed += out.Changed
		doc.SetResults(results)
		if out.WantQuit {
			break
		}
	}

	if changed == 0 || reviewNoRecheck {
		return nil
	}

	lk, err := acquireLock(path)
	if err != nil {
		return err
	}
	defer lk.Unlock()

	if err := report.Write(path, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated %d result(s) in %s\n", changed, path)
	return nil
}

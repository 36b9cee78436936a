package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/careerscout/internal/model"
	"github.com/amishk599/careerscout/internal/review"
)

var locateCmd = &cobra.Command{
	Use:   "locate <website>",
	Short: "Find the career page and an open position for one website",
	Long:  "One-off lookup: runs the career page locator and the position extractor against a company website and prints what was found.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	website := args[0]
	logger := quietLogger()
	if debug {
		logger = setupLogger(true)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	enrich, err := buildEnrichment(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer enrich.Close()

	timeout := cfg.Careers.OracleTimeout + 2*cfg.Fetch.Timeout + time.Minute
	results, err := review.RunLoader("Looking for a career page on "+website, timeout, func(ctx context.Context) ([]model.PipelineResult, error) {
		r := model.PipelineResult{Job: model.JobRecord{CompanyWebsite: website}, Status: model.StatusPartial}
		r.CareerPage = enrich.locator.Locate(ctx, website)
		if !r.CareerPage.Found() {
			r.Reason = "career page not found: " + r.CareerPage.ConfidenceReason
			return []model.PipelineResult{r}, nil
		}
		pos, err := enrich.extractor.Extract(ctx, r.CareerPage.URL)
		if err != nil {
			r.Reason = "career page unreachable: " + err.Error()
			return []model.PipelineResult{r}, nil
		}
		r.Position = pos
		if pos.Found() {
			r.Status = model.StatusComplete
		} else {
			r.Reason = "no open position on career page"
		}
		return []model.PipelineResult{r}, nil
	})
	if err != nil {
		return err
	}

	r := results[0]
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "website:       %s\n", website)
	fmt.Fprintf(w, "career page:   %s\n", orNone(r.CareerPage.URL))
	if r.CareerPage.ConfidenceReason != "" {
		fmt.Fprintf(w, "  why:         %s\n", r.CareerPage.ConfidenceReason)
	}
	fmt.Fprintf(w, "open position: %s\n", orNone(r.Position.URL))
	fmt.Fprintf(w, "status:        %s\n", r.Status)
	if r.Reason != "" {
		fmt.Fprintf(w, "reason:        %s\n", r.Reason)
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

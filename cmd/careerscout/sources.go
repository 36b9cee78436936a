package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the discovery cascade",
	Long:  "Reads the config and prints the four discovery tiers in the order they are tried.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	logger := quietLogger()
	enrich, err := buildEnrichment(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer enrich.Close()

	orch, err := buildOrchestrator(cfg, enrich, logger)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-13s %-17s %s\n", "Tier", "Source", "Status")
	fmt.Fprintln(w, strings.Repeat("─", 47))

	usable := 0
	for _, t := range orch.Tiers() {
		status := "ready"
		switch {
		case !t.Configured:
			status = "not configured"
		case !t.Enabled:
			status = "disabled"
		default:
			usable++
		}
		fmt.Fprintf(w, "%-13s %-17s %s\n", t.Tier, t.Source, status)
	}

	fmt.Fprintf(w, "\nTotal: %d of 4 tiers usable\n", usable)
	return nil
}

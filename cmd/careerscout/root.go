package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/careerscout/internal/config"
	"github.com/amishk599/careerscout/internal/secrets"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "careerscout",
	Short: "Find the company career page behind a LinkedIn job",
	Long: "careerscout discovers LinkedIn job postings through a cascade of sources, " +
		"then finds each hiring company's website, career page and matching open position.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: CAREERSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path, parses it and fills keyring secrets.
// Priority: explicit path arg > CAREERSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("CAREERSCOUT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(secrets.Get); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// quietLogger is used while a TUI owns the terminal.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

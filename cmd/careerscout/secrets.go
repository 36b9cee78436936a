package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/careerscout/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage API keys in the OS keychain",
	Long: "Stores API keys in the OS keychain. Reference them from config.yaml as " +
		"api_key: keyring:<account>, for example api_key: keyring:scrapin.",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <account>",
	Short: "Store a secret read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.ErrOrStderr(), "Enter secret for %s: ", args[0])
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading secret: %w", err)
		}
		if err := secrets.Set(args[0], strings.TrimSpace(line)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s in keychain service %q\n", args[0], secrets.KeyringService)
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var secretsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which well-known accounts have a stored secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		for _, account := range secrets.Accounts {
			state := "missing"
			if secrets.Has(account) {
				state = "stored"
			}
			fmt.Fprintf(w, "%-15s %s\n", account, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd, secretsStatusCmd)
}

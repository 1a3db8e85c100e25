package main

import (
	"fmt"

	"github.com/rohankatakam/gitemails/internal/config"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a GitHub token for later runs",
	Long: `Prompt for a GitHub personal access token and store it in the OS keychain.

When no keychain is available the token is appended to
~/.config/gitemails/credentials.yaml (mode 0600) instead.
Tokens passed with --token, --token-file or GITHUB_TOKEN take precedence.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	fmt.Fprint(cmd.OutOrStdout(), "GitHub token: ")
	secret, err := config.ReadSecret()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	where, err := config.NewCredentialManager(logger.Logger).SaveToken(secret)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Token %s saved (%s)\n", config.MaskToken(secret), where)
	return nil
}

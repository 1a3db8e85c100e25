package main

import (
	"fmt"

	"github.com/rohankatakam/gitemails/internal/config"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored GitHub tokens",
	Long: `Delete the GitHub token stored by 'gitemails login' from the OS keychain
and remove ~/.config/gitemails/credentials.yaml.

Environment variables and token files are not affected.`,
	Args: cobra.NoArgs,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := config.NewCredentialManager(logger.Logger).DeleteTokens(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Stored GitHub tokens removed")
	return nil
}

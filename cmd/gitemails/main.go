package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rohankatakam/gitemails/internal/config"
	"github.com/rohankatakam/gitemails/internal/crawl"
	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/rohankatakam/gitemails/internal/github"
	"github.com/rohankatakam/gitemails/internal/logging"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/rohankatakam/gitemails/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logging.Logger
	cfg     *config.Config

	userName  string
	orgName   string
	token     string
	tokenFile string
	depth     int
	outputDir string
	dbDSN     string
)

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var e *errors.Error
		if verbose && stderrors.As(err, &e) {
			fmt.Fprintln(os.Stderr, e.DetailedString())
		}
		if hint := hintFor(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint: "+hint)
		}
		os.Exit(1)
	}
}

// hintFor suggests a next step for errors the user can act on
func hintFor(err error) string {
	switch {
	case errors.GetType(err) == errors.ErrorTypeRateLimit:
		return "pass --token or --token-file to raise the GitHub rate limit"
	case stderrors.Is(err, errors.ErrDatabase):
		return "the CSV files are complete; rerun without --db or check the database"
	default:
		return ""
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitemails",
	Short: "Collect commit author and committer identities from GitHub accounts",
	Long: `gitemails walks every repository of a GitHub user or organization and
records the (login, email, name) of each commit author and committer.

Rows are appended to github-data-<account>.csv as they are found, and the
distinct identities are written to unique-combos-<account>.csv at exit.
With --depth N the commit authors found are crawled in turn, N levels deep.`,
	Example: `  gitemails --user octocat
  gitemails --org acme --token-file tokens.txt --depth 1
  gitemails --user octocat --db sqlite://emails.db`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}

		logCfg := logging.Config{
			Level:      cfg.Log.Level,
			OutputFile: cfg.Log.File,
			JSONFormat: cfg.Log.JSON,
		}
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.New(logCfg)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to initialize logging")
		}

		for _, warning := range cfg.Check().Warnings {
			logger.Warn(warning)
		}
		return cfg.Validate()
	},
	RunE: runCrawl,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .gitemails/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().StringVar(&userName, "user", "", "GitHub user whose repositories to crawl")
	rootCmd.Flags().StringVar(&orgName, "org", "", "GitHub organization whose repositories to crawl")
	rootCmd.Flags().StringVar(&token, "token", "", "GitHub token")
	rootCmd.Flags().StringVar(&tokenFile, "token-file", "", "file with one GitHub token per line, used in rotation")
	rootCmd.Flags().IntVar(&depth, "depth", 0, "levels of commit authors to crawl after the initial account")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for the CSV files (default: output.directory)")
	rootCmd.Flags().StringVar(&dbDSN, "db", "", "also store results in a database (sqlite://path or postgres://...)")

	rootCmd.MarkFlagsMutuallyExclusive("user", "org")
	rootCmd.MarkFlagsOneRequired("user", "org")
	rootCmd.MarkFlagsMutuallyExclusive("token", "token-file")

	// Set custom version template
	rootCmd.SetVersionTemplate(`gitemails {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	if depth < 0 {
		return errors.ValidationErrorf("--depth must be a non-negative integer, got %d", depth)
	}

	account := models.Account{Name: userName, Kind: models.AccountUser}
	if orgName != "" {
		account = models.Account{Name: orgName, Kind: models.AccountOrg}
	}
	if outputDir != "" {
		cfg.Output.Directory = outputDir
	}
	if dbDSN != "" {
		cfg.Storage.DSN = dbDSN
	}

	runID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{
		"run_id": runID,
	})

	tokens, source, err := config.NewCredentialManager(logger.Logger).ResolveTokens(token, tokenFile)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		log.Warn("No GitHub token configured, requests are unauthenticated and heavily rate limited")
	} else {
		log.WithFields(logrus.Fields{
			"source": source,
			"tokens": len(tokens),
		}).Info("Using GitHub tokens")
	}

	client, err := github.NewClient(github.NewTokenRotator(tokens), github.Options{
		BaseURL:                   cfg.GitHub.BaseURL,
		UserAgent:                 cfg.GitHub.UserAgent,
		PerPage:                   cfg.GitHub.PerPage,
		RequestsPerSecond:         cfg.GitHub.RequestsPerSecond,
		RetryDelay:                cfg.GitHub.RetryDelay,
		MaxUnauthenticatedRetries: cfg.GitHub.MaxUnauthenticatedRetries,
		Logger:                    logger.Logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := crawl.Options{
		Account:   account,
		Depth:     depth,
		OutputDir: cfg.Output.Directory,
	}
	if cfg.Storage.DSN != "" {
		store, err := storage.Open(ctx, cfg.Storage.DSN, runID, logger.Logger)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Mirror = store
	}

	log.WithFields(logrus.Fields{
		"account": account.Name,
		"kind":    account.Kind,
		"depth":   depth,
	}).Info("Starting crawl")

	summary, err := crawl.Run(ctx, client, opts, log)
	if summary != nil {
		log.WithFields(logrus.Fields{
			"accounts":        summary.Accounts,
			"repositories":    summary.Repositories,
			"commits":         summary.Commits,
			"skipped_commits": summary.SkippedCommits,
			"rows":            summary.Rows,
			"unique_combos":   summary.UniqueCombos,
			"data_file":       summary.DataFile,
			"combos_file":     summary.CombosFile,
			"duration":        summary.Duration.Round(time.Millisecond),
		}).Info("Crawl finished")
	}
	return err
}

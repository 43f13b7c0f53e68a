package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saferoute/sheetfetch/internal/config"
	"github.com/saferoute/sheetfetch/internal/httpx"
	"github.com/saferoute/sheetfetch/internal/pathutil"
	"github.com/saferoute/sheetfetch/internal/runner"
)

func newFetchCmd() *cobra.Command {
	var retryMax int

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download travel sheet documents for all configured accounts",
		Long: `Fetch lists every travel sheet for each configured account, resolves the
attached documents, and downloads them to the output directory. Files that
already exist locally are never overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEffectiveConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("retry-max") {
				cfg.RetryMax = retryMax
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := GetLogger()
			if source := config.CredentialsSource(credentials, cfg); source != "" {
				log.Debug().
					Str("source", source).
					Int("accounts", len(cfg.Credentials)).
					Msg("resolved credentials")
			}

			base := httpx.NewClient(cfg.RetryMax, log)
			run := runner.New(cfg, base, log)

			summaries, err := run.Run(GetContext())
			printSummaries(summaries)
			return err
		},
	}

	cmd.Flags().IntVar(&retryMax, "retry-max", 0, "Transport-level retries per request (default 0: no retry policy)")

	return cmd
}

// loadEffectiveConfig loads the config file and environment, then applies
// command-line overrides on top.
func loadEffectiveConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	cfg.Credentials = config.ResolveCredentials(credentials, cfg)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if listLimit > 0 {
		cfg.ListLimit = listLimit
	}
	if maxConcurrent >= 0 {
		cfg.MaxConcurrent = maxConcurrent
	}
	if timeoutSec >= 0 {
		cfg.RequestTimeout = time.Duration(timeoutSec) * time.Second
	}

	if cfg.OutputDir != "" {
		resolved, err := pathutil.Resolve(cfg.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.OutputDir = resolved
	}

	return cfg, nil
}

func printSummaries(summaries []runner.AccountSummary) {
	for _, s := range summaries {
		if s.Err != nil {
			fmt.Printf("account %d: failed: %v\n", s.Account, s.Err)
			continue
		}
		fmt.Printf("account %d: %d sheets, %d documents, %d downloaded, %d already present",
			s.Account, s.Sheets, s.Projects, s.Downloaded, s.Existing)
		if s.Skipped > 0 {
			fmt.Printf(", %d without filename", s.Skipped)
		}
		if s.Failed > 0 {
			fmt.Printf(", %d failed", s.Failed)
		}
		fmt.Println()
	}
}

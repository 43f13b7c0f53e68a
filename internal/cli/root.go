// Package cli provides the command-line interface for sheetfetch.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/saferoute/sheetfetch/internal/logging"
	"github.com/saferoute/sheetfetch/internal/version"
)

var (
	// Global flags
	cfgFile       string
	credentials   string
	baseURL       string
	outputDir     string
	listLimit     int
	maxConcurrent int
	timeoutSec    int
	verbose       bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetfetch",
		Short: "Batch downloader for safe-route travel sheet documents",
		Long: `sheetfetch ` + version.Version + ` - Built: ` + version.BuildTime + `
Downloads every document attached to an account's travel sheets from the
safe-route service, skipping files already present locally.

Accounts are processed one after another; requests within an account run
concurrently. Credentials come from --credentials, the config file, or the
KGWS_LKP_LIST environment variable (whitespace-separated tokens).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefault()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&credentials, "credentials", "", "Account tokens, whitespace-separated (overrides all other sources)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "Download directory (overrides config)")
	rootCmd.PersistentFlags().IntVar(&listLimit, "limit", 0, "Initial listing page limit (0 = config value)")
	rootCmd.PersistentFlags().IntVar(&maxConcurrent, "max-concurrent", -1, "Max in-flight requests per account (0 = unbounded, -1 = config value)")
	rootCmd.PersistentFlags().IntVar(&timeoutSec, "timeout", -1, "Per-request timeout in seconds (0 = none, -1 = config value)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI with a signal-aware root context.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling. It is
// cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

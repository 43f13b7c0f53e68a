package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/saferoute/sheetfetch/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sheetfetch configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a template config file",
		Long: `Writes a config file with default values to ~/.config/sheetfetch/config
(or the path given with --config). Add account credentials to the
[saferoute] section afterwards, or supply them via KGWS_LKP_LIST.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}

			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Printf("Wrote config template to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  `Prints the configuration after merging file, environment, and flags. Credential tokens are redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEffectiveConfig()
			if err != nil {
				return err
			}

			shown := cfg.Redacted()
			fmt.Printf("base_url:        %s\n", shown.BaseURL)
			fmt.Printf("output_dir:      %s\n", shown.OutputDir)
			fmt.Printf("list_limit:      %d\n", shown.ListLimit)
			fmt.Printf("max_concurrent:  %d\n", shown.MaxConcurrent)
			fmt.Printf("request_timeout: %s\n", shown.RequestTimeout.Round(time.Second))
			fmt.Printf("retry_max:       %d\n", shown.RetryMax)
			if len(shown.Credentials) == 0 {
				fmt.Println("credentials:     (none)")
			} else {
				fmt.Printf("credentials:     %d account(s)", len(shown.Credentials))
				if source := config.CredentialsSource(credentials, cfg); source != "" {
					fmt.Printf(" from %s", source)
				}
				fmt.Println()
				for i, cred := range shown.Credentials {
					fmt.Printf("  %d. %s\n", i+1, cred)
				}
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shanehull/anndash/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	debug   bool
	apiURL  string

	rootCmd = &cobra.Command{
		Use:   "anndash",
		Short: "Operator dashboard for scraped announcements",
		Long: `anndash shows the announcements collected by the scraping service, lets an
operator mark them as reviewed and starts or stops scrape jobs.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd)
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./anndash.yaml or ./config/anndash.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "announcement API base URL (overrides API_URL)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "anndash version %s\n", version)
			},
		},
		newRunCommand(),
		newListCommand(),
		newStatsCommand(),
		newScrapeCommand(),
	)
}

// loadConfig reads env files, the config file and flags into a validated Config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if f := cmd.Flags().Lookup("api-url"); f != nil && f.Changed {
		v.Set("api.base_url", apiURL)
	}
	if debug {
		v.Set("logger.level", "debug")
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

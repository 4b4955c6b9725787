package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"beacon-hq/ferry/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a Ferry configuration file without starting the server.

Validation checks that the file parses, values are within their bounds,
the strategy name is known, and at least one endpoint carries both a base
URL and an API key.

Examples:
  # Validate the default config file
  ferry validate

  # Validate a specific file
  ferry validate --config /etc/ferry/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	usable := 0
	for _, ep := range cfg.Endpoints {
		if ep.BaseURL != "" && ep.APIKey != "" {
			usable++
		}
	}

	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
	fmt.Printf("  listen address: %s\n", cfg.Proxy.ListenAddress)
	fmt.Printf("  strategy:       %s\n", cfg.Routing.Strategy)
	fmt.Printf("  endpoints:      %d usable of %d configured\n", usable, len(cfg.Endpoints))
	return nil
}

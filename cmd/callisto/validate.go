package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
)

var validateFlags struct {
	env bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a Callisto configuration file.

The validate command parses the YAML configuration, applies defaults, and
checks every limit policy, the journal settings, and the telemetry
settings. All validation errors are reported together.

Examples:
  # Validate the default config file
  callisto validate

  # Validate a specific file
  callisto validate --config /etc/callisto/callisto.yaml

  # Validate with CALLISTO_* environment overrides applied
  callisto validate --env`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.env, "env", false, "apply CALLISTO_* environment overrides before validating")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	load := config.LoadConfig
	if validateFlags.env {
		load = config.LoadConfigWithEnvOverrides
	}

	cfg, err := load(cfgFile)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	fmt.Printf("Configuration %s is valid.\n", cfgFile)
	fmt.Println()
	fmt.Printf("Default policy:      %s\n", cfg.Limits.Default.Algorithm)
	fmt.Printf("Identifier policies: %d\n", len(cfg.Limits.Identifiers))
	if cfg.Journal.Enabled {
		fmt.Printf("Journal:             enabled (%s)\n", cfg.Journal.Backend)
	} else {
		fmt.Printf("Journal:             disabled\n")
	}
	fmt.Printf("Logging:             %s/%s\n", cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)

	if verbose {
		fmt.Println()
		for id, p := range cfg.Limits.Identifiers {
			fmt.Printf("  %s: %s\n", id, p.Algorithm)
		}
	}
	return nil
}

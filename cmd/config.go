package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/htmlinject/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect htmlinject configuration",
	Long: `Inspect the resolved htmlinject configuration.

Examples:
  htmlinject config validate           # Validate .htmlinject.yml and overrides
  htmlinject config validate --strict  # Treat warnings as errors
  htmlinject config show --format json # Show the resolved configuration`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Check the configuration after file, environment and flag overrides are
applied. Every problem is listed with a hint where one exists.`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Long: `Display the configuration after:
- Loading from the configuration file
- Applying HTMLINJECT_* environment variable overrides
- Setting default values
- Processing command-line flags`,
	RunE: runConfigShow,
}

var (
	configFormat string
	configStrict bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configValidateCmd.Flags().BoolVar(&configStrict, "strict", false, "Treat warnings as errors")
	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "Output format (yaml, json)")
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	validation := cfg.ValidateWithDetails()
	if !validation.HasErrors() && len(validation.Warnings) == 0 {
		fmt.Fprintln(out, "Configuration is valid.")
		return nil
	}

	fmt.Fprint(out, validation.String())

	if validation.HasErrors() {
		return fmt.Errorf("configuration validation failed with %d errors", len(validation.Errors))
	}
	if configStrict {
		return fmt.Errorf("configuration validation failed in strict mode with %d warnings", len(validation.Warnings))
	}

	fmt.Fprintf(out, "Configuration is valid with %d warnings. Use --strict to treat warnings as errors.\n",
		len(validation.Warnings))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	switch configFormat {
	case "yaml", "yml", "json":
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", configFormat)
	}
	return writeFormatted(cmd.OutOrStdout(), configFormat, cfg, func(io.Writer) {})
}

// Package cmd provides the htmlinject command-line interface.
//
// Configuration System:
//
//	Settings come from several sources, highest precedence first:
//	1. Command-line flags (--outdir, --port, ...)
//	2. HTMLINJECT_<SECTION>_<OPTION> environment variables
//	3. The configuration file: --config, then HTMLINJECT_CONFIG_FILE,
//	   then .htmlinject.yml in the current directory
//	4. Built-in defaults
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "htmlinject",
	Short: "Generate HTML documents that load esbuild outputs",
	Long: `htmlinject turns HTML templates into documents that reference the
scripts and stylesheets produced by an esbuild build.

For every configured template it rewrites local asset references to the
output directory, copies those assets, and adds <link> and <script> tags for
the bundles that belong to the document.

Quick Start:
  htmlinject build                Build once and write the documents
  htmlinject watch                Rebuild on every change
  htmlinject serve                Rebuild on change and serve with live reload
  htmlinject inspect              List the assets a template references
  htmlinject config show          Print the resolved configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .htmlinject.yml, can also use HTMLINJECT_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bundling flags, shared by build, watch and serve.
	flags := rootCmd.PersistentFlags()
	flags.StringP("outdir", "o", "", "output directory")
	flags.String("public-path", "", "prefix for URLs written into the documents")
	flags.String("bundle-format", "esm", "bundle format (esm, iife, cjs)")
	flags.Bool("minify", false, "minify the bundles")
	flags.Bool("sourcemap", false, "write linked source maps")

	bindRootFlags()
}

// bindRootFlags connects the persistent flags to their configuration keys.
func bindRootFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("build.outdir", flags.Lookup("outdir"))
	_ = viper.BindPFlag("build.public_path", flags.Lookup("public-path"))
	_ = viper.BindPFlag("build.format", flags.Lookup("bundle-format"))
	_ = viper.BindPFlag("build.minify", flags.Lookup("minify"))
	_ = viper.BindPFlag("build.sourcemap", flags.Lookup("sourcemap"))
}

// initConfig points Viper at the configuration file and enables
// HTMLINJECT_ environment overrides. A missing default file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("HTMLINJECT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".htmlinject")
	}

	viper.SetEnvPrefix("HTMLINJECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if viper.ConfigFileUsed() != "" && cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Cannot read config file:", err)
	}
}

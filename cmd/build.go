package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/htmlinject/internal/bundle"
	"github.com/conneroisu/htmlinject/internal/inject"
	"github.com/conneroisu/htmlinject/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:     "build [entry...]",
	Aliases: []string{"b"},
	Short:   "Bundle the entry points and write the HTML documents",
	Long: `Run esbuild once with the htmlinject plugin attached. After the bundles
are written every configured template is turned into a document in the
output directory.

Examples:
  htmlinject build                        # Use entry points from .htmlinject.yml
  htmlinject build src/app.ts --outdir dist
  htmlinject build --minify --sourcemap   # Production build`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	ctx := cmd.Context()

	out := cmd.OutOrStdout()
	inj, err := newInjector(cfg, logger, inject.NotifierFunc(func(results []inject.Result) {
		printResults(out, results)
	}))
	if err != nil {
		return err
	}

	opts, err := bundle.Options(cfg.Build, inj.Plugin())
	if err != nil {
		return err
	}

	perf := logging.StartOperation(logger, "build")
	result, err := bundle.Build(opts)
	if err != nil {
		perf.EndWithError(ctx, err)
		return err
	}
	perf.End(ctx, "files", len(result.OutputFiles), "warnings", len(result.Warnings))

	return nil
}

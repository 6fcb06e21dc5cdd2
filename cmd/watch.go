package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch [entry...]",
	Aliases: []string{"w"},
	Short:   "Rebuild the bundles and documents on every change",
	Long: `Build once, then keep an incremental esbuild context alive and rebuild
whenever a file below the watch paths changes. The output directory is never
watched. Editing a template forces its document to be rewritten.

Build failures are reported and the watcher keeps running.

Examples:
  htmlinject watch                  # Watch the paths from .htmlinject.yml
  htmlinject watch src/app.ts -o dist`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	loop, err := newDevLoop(cfg, logger, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return loop.Run(ctx)
}

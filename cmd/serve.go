package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/htmlinject/internal/inject"
	"github.com/conneroisu/htmlinject/internal/livereload"
	"github.com/conneroisu/htmlinject/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve [entry...]",
	Aliases: []string{"s"},
	Short:   "Watch, rebuild and serve the output directory with live reload",
	Long: `Run the watch loop and serve the output directory over HTTP. Pages are
served with a small script that reloads them after every rebuild that
rewrote a document.

Examples:
  htmlinject serve                       # Serve on localhost:8080
  htmlinject serve --port 3000
  htmlinject serve --live-reload=false  # Plain static server plus rebuilds`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("live-reload", true, "Reload pages after each rebuild")

	bindServeFlags()
}

func bindServeFlags() {
	_ = viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("serve.live_reload", serveCmd.Flags().Lookup("live-reload"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	hub := livereload.NewHub(logger)
	var notifiers []inject.Notifier
	if cfg.Serve.LiveReload {
		notifiers = append(notifiers, hub)
	}

	loop, err := newDevLoop(cfg, logger, cmd.OutOrStdout(), notifiers...)
	if err != nil {
		hub.Shutdown()
		return err
	}

	srv := server.New(loop.injector.OutDir(), cfg.Serve, hub, logger)
	if err := srv.Listen(); err != nil {
		loop.Close()
		hub.Shutdown()
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", relativePath(loop.injector.OutDir()), srv.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return srv.Start(ctx) })
	return g.Wait()
}

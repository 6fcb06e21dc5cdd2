package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/htmlinject/internal/config"
	"github.com/conneroisu/htmlinject/internal/inject"
	"github.com/conneroisu/htmlinject/internal/logging"
)

// loadConfig resolves the configuration, treating positional arguments as
// entry points.
func loadConfig(args []string) (*config.Config, error) {
	if len(args) > 0 {
		viper.Set("build.entry_points", args)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger described by the log section. Logs go to
// stderr so command output stays parseable.
func newLogger(cmd *cobra.Command, cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    cmd.ErrOrStderr(),
		Component: "htmlinject",
	})
}

// newInjector creates the injector for cfg with the given notifiers.
func newInjector(cfg *config.Config, logger logging.Logger, notifiers ...inject.Notifier) (*inject.Injector, error) {
	opts := []inject.Option{inject.WithLogger(logger)}
	for _, n := range notifiers {
		opts = append(opts, inject.WithNotifier(n))
	}
	return inject.New(cfg.InjectOptions(), cfg.Targets(), opts...)
}

// printResults writes one line per target.
func printResults(w io.Writer, results []inject.Result) {
	for _, r := range results {
		if !r.Modified {
			fmt.Fprintf(w, "  %s unchanged\n", r.Target)
			continue
		}
		fmt.Fprintf(w, "  %s -> %s (%d outputs, %d assets copied, %d up to date) in %s\n",
			r.Target, relativePath(r.HTMLPath), len(r.Outputs), len(r.Copied), len(r.Skipped), r.Duration.Round(time.Microsecond))
	}
}

func relativePath(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	if rel, err := filepath.Rel(wd, p); err == nil {
		return rel
	}
	return p
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/conneroisu/htmlinject/internal/bundle"
	"github.com/conneroisu/htmlinject/internal/config"
	"github.com/conneroisu/htmlinject/internal/errors"
	"github.com/conneroisu/htmlinject/internal/inject"
	"github.com/conneroisu/htmlinject/internal/logging"
	"github.com/conneroisu/htmlinject/internal/watcher"
)

// devLoop rebuilds incrementally whenever a watched file changes. A failed
// rebuild is recorded and logged; the loop keeps running.
type devLoop struct {
	cfg      *config.Config
	logger   logging.Logger
	out      io.Writer
	injector *inject.Injector
	session  *bundle.Session
	watcher  *watcher.FileWatcher
	failures *errors.ErrorCollector
}

func newDevLoop(cfg *config.Config, logger logging.Logger, out io.Writer, notifiers ...inject.Notifier) (*devLoop, error) {
	l := &devLoop{
		cfg:      cfg,
		logger:   logger.WithComponent("watch"),
		out:      out,
		failures: errors.NewErrorCollector(),
	}
	notifiers = append(notifiers, inject.NotifierFunc(func(results []inject.Result) {
		printResults(l.out, results)
	}))

	inj, err := newInjector(cfg, logger, notifiers...)
	if err != nil {
		return nil, err
	}
	l.injector = inj

	opts, err := bundle.Options(cfg.Build, inj.Plugin())
	if err != nil {
		return nil, err
	}
	session, err := bundle.NewSession(opts)
	if err != nil {
		return nil, err
	}
	l.session = session

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		session.Dispose()
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.AddFilter(watcher.IgnoreDir(inj.OutDir()))
	fw.AddFilter(watcher.IgnoreNames(cfg.Watch.Ignore...))
	fw.AddFilter(watcher.NoEditorFilter)
	fw.AddHandler(l.handleChanges)

	wd, err := filepath.Abs(cfg.Build.WorkingDir)
	if err != nil {
		wd = cfg.Build.WorkingDir
	}
	for _, p := range cfg.Watch.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(wd, p)
		}
		if err := fw.AddRecursive(p); err != nil {
			fw.Stop()
			session.Dispose()
			return nil, fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}
	l.watcher = fw

	return l, nil
}

// Run performs the first build and then rebuilds on change until ctx is done.
func (l *devLoop) Run(ctx context.Context) error {
	defer l.Close()

	l.rebuild(ctx)
	l.watcher.Start(ctx)
	l.logger.Info(ctx, "Watching for changes", "paths", l.cfg.Watch.Paths)

	<-ctx.Done()
	return nil
}

// Close stops watching and releases the esbuild context.
func (l *devLoop) Close() {
	if err := l.watcher.Stop(); err != nil {
		l.logger.Warn(context.Background(), err, "Cannot stop file watcher")
	}
	l.session.Dispose()
}

// Err returns the failures of the most recent rebuild.
func (l *devLoop) Err() error {
	return l.failures.Err()
}

func (l *devLoop) handleChanges(ctx context.Context, events []watcher.ChangeEvent) error {
	templates := make(map[string]struct{})
	for _, t := range l.injector.Templates() {
		templates[t] = struct{}{}
	}

	for _, e := range events {
		l.logger.Debug(ctx, "File changed", "type", e.Type.String(), "path", e.Path)
		path, err := filepath.Abs(e.Path)
		if err != nil {
			continue
		}
		if _, ok := templates[path]; ok {
			l.injector.Invalidate()
			break
		}
	}

	l.rebuild(ctx)
	return nil
}

func (l *devLoop) rebuild(ctx context.Context) {
	l.failures.Clear()

	perf := logging.StartOperation(l.logger, "rebuild")
	result, err := l.session.Rebuild()
	for _, m := range bundle.Messages(result.Warnings, errors.ErrorSeverityWarning) {
		l.failures.Add(m)
		l.logger.Warn(ctx, nil, m.Error())
	}
	if err != nil {
		l.failures.AddError(err)
		perf.EndWithError(ctx, err)
		fmt.Fprintf(l.out, "build failed: %v\n", err)
		return
	}
	perf.End(ctx, "files", len(result.OutputFiles))
}

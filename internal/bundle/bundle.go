// Package bundle drives esbuild from the htmlinject configuration.
package bundle

import (
	"fmt"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/htmlinject/internal/config"
	"github.com/conneroisu/htmlinject/internal/errors"
)

// Loaders maps asset extensions that may be imported from scripts to the
// file loader so they are copied next to the bundles.
var Loaders = map[string]api.Loader{
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".gif":   api.LoaderFile,
	".svg":   api.LoaderFile,
	".webp":  api.LoaderFile,
	".ico":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".ttf":   api.LoaderFile,
}

// Options translates the build section into esbuild options. Bundling,
// writing and metafile generation are always enabled.
func Options(cfg config.BuildConfig, plugins ...api.Plugin) (api.BuildOptions, error) {
	wd, err := filepath.Abs(cfg.WorkingDir)
	if err != nil {
		return api.BuildOptions{}, errors.NewIOError(errors.CodeInvalidConfig, "resolving working directory", err)
	}
	format, err := Format(cfg.Format)
	if err != nil {
		return api.BuildOptions{}, err
	}

	opts := api.BuildOptions{
		AbsWorkingDir:     wd,
		EntryPoints:       cfg.EntryPoints,
		Outdir:            cfg.OutDir,
		PublicPath:        cfg.PublicPath,
		EntryNames:        cfg.EntryNames,
		Format:            format,
		Bundle:            true,
		Write:             true,
		Metafile:          true,
		MinifyWhitespace:  cfg.Minify,
		MinifyIdentifiers: cfg.Minify,
		MinifySyntax:      cfg.Minify,
		Loader:            Loaders,
		LogLevel:          api.LogLevelSilent,
		Plugins:           plugins,
	}
	if cfg.Sourcemap {
		opts.Sourcemap = api.SourceMapLinked
	}
	if format == api.FormatESModule {
		opts.Splitting = true
	}

	return opts, nil
}

// Format parses a format name.
func Format(name string) (api.Format, error) {
	switch name {
	case "esm":
		return api.FormatESModule, nil
	case "iife":
		return api.FormatIIFE, nil
	case "cjs":
		return api.FormatCommonJS, nil
	case "":
		return api.FormatDefault, nil
	}
	return api.FormatDefault, errors.NewConfigError(errors.CodeInvalidConfig,
		fmt.Sprintf("unknown format %q", name))
}

// Build runs a single build. Bundler errors, including those returned by
// plugins, are reported as one build error.
func Build(opts api.BuildOptions) (api.BuildResult, error) {
	result := api.Build(opts)
	return result, Failure(result.Errors, result.Warnings)
}

// Failure converts esbuild diagnostics to a build error, or returns nil
// when errs is empty. Warnings ride along in the cause.
func Failure(errs, warnings []api.Message) error {
	if len(errs) == 0 {
		return nil
	}
	collector := errors.NewErrorCollector()
	for _, m := range Messages(errs, errors.ErrorSeverityError) {
		collector.Add(m)
	}
	for _, m := range Messages(warnings, errors.ErrorSeverityWarning) {
		collector.Add(m)
	}
	return errors.NewBuildError(errors.CodeBuildFailed,
		fmt.Sprintf("build failed with %d error(s)", len(errs)), collector.Err())
}

// Messages converts esbuild diagnostics to collector messages.
func Messages(msgs []api.Message, severity errors.ErrorSeverity) []errors.BuildMessage {
	out := make([]errors.BuildMessage, 0, len(msgs))
	for _, m := range msgs {
		bm := errors.BuildMessage{Message: m.Text, Severity: severity}
		if m.PluginName != "" {
			bm.Message = fmt.Sprintf("[plugin %s] %s", m.PluginName, m.Text)
		}
		if m.Location != nil {
			bm.File = m.Location.File
			bm.Line = m.Location.Line
			bm.Column = m.Location.Column
		}
		out = append(out, bm)
	}
	return out
}

package inject

import (
	"github.com/conneroisu/htmlinject/internal/logging"
)

// BuildOptions is the part of the bundler configuration the injector reads.
type BuildOptions struct {
	// WorkingDir resolves relative templates, the output directory and the
	// output paths reported by the metafile. Defaults to the process
	// working directory.
	WorkingDir string
	// OutDir receives the documents and copied assets. Required.
	OutDir string
	// PublicPath prefixes every rewritten URL. May be an absolute URL.
	PublicPath string
	// Format is the bundler output format; "esm" emits module scripts.
	Format string
	// EntryNames are the entry points of the build. Targets that do not
	// list their own entries use all of them.
	EntryNames []string
}

// Module reports whether scripts are emitted as ES modules.
func (b BuildOptions) Module() bool {
	return b.Format == "esm"
}

// TargetOptions configures one generated document.
type TargetOptions struct {
	// Template is the source HTML file, relative to the working directory.
	Template string `json:"template" yaml:"template"`
	// Filename is the emitted name. Defaults to the template's base name.
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
	// EntryNames restricts which bundler entries get tags.
	EntryNames []string `json:"entry_points,omitempty" yaml:"entry_points,omitempty"`
	// IgnoreAssets disables rebasing and copying of template assets.
	IgnoreAssets bool `json:"ignore_assets,omitempty" yaml:"ignore_assets,omitempty"`

	CrossOrigin     string `json:"crossorigin,omitempty" yaml:"crossorigin,omitempty"`
	Defer           bool   `json:"defer,omitempty" yaml:"defer,omitempty"`
	Integrity       string `json:"integrity,omitempty" yaml:"integrity,omitempty"`
	ScriptPlacement string `json:"script_placement,omitempty" yaml:"script_placement,omitempty"`
	LinkPlacement   string `json:"link_placement,omitempty" yaml:"link_placement,omitempty"`
}

// Notifier is told about every pass that completed without error.
type Notifier interface {
	PassFinished(results []Result)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(results []Result)

// PassFinished calls f.
func (f NotifierFunc) PassFinished(results []Result) {
	f(results)
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the logger used for pass reporting.
func WithLogger(l logging.Logger) Option {
	return func(i *Injector) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithNotifier registers n to be told about finished passes.
func WithNotifier(n Notifier) Option {
	return func(i *Injector) {
		if n != nil {
			i.notifiers = append(i.notifiers, n)
		}
	}
}

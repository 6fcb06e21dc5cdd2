// Package inject runs the HTML injection pass after every bundler build.
//
// A pass loads each target's template, rebases its local asset references,
// selects the bundler outputs that belong to it and, when that selection
// changed since the last emission, adds tags for the outputs and writes the
// document and its assets to the output directory.
package inject

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/conneroisu/htmlinject/internal/assets"
	"github.com/conneroisu/htmlinject/internal/dom"
	"github.com/conneroisu/htmlinject/internal/emit"
	"github.com/conneroisu/htmlinject/internal/errors"
	"github.com/conneroisu/htmlinject/internal/logging"
	"github.com/conneroisu/htmlinject/internal/outputs"
	"github.com/conneroisu/htmlinject/internal/tags"
)

// DefaultTemplate is used when no target is configured.
const DefaultTemplate = "index.html"

// Result describes what one pass did for one target.
type Result struct {
	Target   string        `json:"target" yaml:"target"`
	Modified bool          `json:"modified" yaml:"modified"`
	HTMLPath string        `json:"html_path,omitempty" yaml:"html_path,omitempty"`
	Outputs  []string      `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Copied   []string      `json:"copied,omitempty" yaml:"copied,omitempty"`
	Skipped  []string      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Injector owns the per-target state that persists across passes.
type Injector struct {
	build     BuildOptions
	targets   []*target
	logger    logging.Logger
	notifiers []Notifier

	mu sync.Mutex
}

type target struct {
	name     string
	filename string
	names    []string
	ignore   bool

	loader  *templateLoader
	rebaser *assets.Rebaser
	synth   *tags.Synthesizer
	cache   *outputs.Cache
	emitter *emit.Emitter

	emitted bool
}

// New validates the configuration and prepares one target per entry of
// targets. With no targets a single target for DefaultTemplate is used.
func New(build BuildOptions, targets []TargetOptions, opts ...Option) (*Injector, error) {
	if build.OutDir == "" {
		return nil, errors.NewConfigError(errors.CodeMissingOutDir,
			"outdir is required to emit html")
	}
	if build.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.NewIOError(errors.CodeTemplateRead, "resolving working directory", err)
		}
		build.WorkingDir = wd
	}
	build.WorkingDir = absolute("", build.WorkingDir)
	build.OutDir = absolute(build.WorkingDir, build.OutDir)

	i := &Injector{
		build:  build,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.WithComponent("inject")

	if len(targets) == 0 {
		targets = []TargetOptions{{Template: DefaultTemplate}}
	}
	for _, to := range targets {
		t, err := i.newTarget(to)
		if err != nil {
			return nil, err
		}
		i.targets = append(i.targets, t)
	}

	return i, nil
}

func (i *Injector) newTarget(to TargetOptions) (*target, error) {
	if to.Template == "" {
		to.Template = DefaultTemplate
	}
	placement, err := tags.ParsePlacement(to.ScriptPlacement)
	if err != nil {
		return nil, withTarget(err, to.Template)
	}
	position, err := tags.ParsePosition(to.LinkPlacement)
	if err != nil {
		return nil, withTarget(err, to.Template)
	}
	alg, err := tags.ParseAlgorithm(to.Integrity)
	if err != nil {
		return nil, withTarget(err, to.Template)
	}

	path := absolute(i.build.WorkingDir, to.Template)
	filename := to.Filename
	if filename == "" {
		filename = filepath.Base(path)
	}
	names := to.EntryNames
	if len(names) == 0 {
		names = i.build.EntryNames
	}

	return &target{
		name:     filename,
		filename: filename,
		names:    names,
		ignore:   to.IgnoreAssets,
		loader:   newTemplateLoader(path),
		rebaser: &assets.Rebaser{
			TemplateDir: filepath.Dir(path),
			OutDir:      i.build.OutDir,
			PublicPath:  i.build.PublicPath,
		},
		synth: tags.New(tags.Options{
			PublicPath:      i.build.PublicPath,
			CrossOrigin:     to.CrossOrigin,
			Defer:           to.Defer,
			Module:          i.build.Module(),
			Integrity:       alg,
			ScriptPlacement: placement,
			LinkPosition:    position,
		}),
		cache:   outputs.NewCache(),
		emitter: emit.New(emit.NewLedger()),
	}, nil
}

// Run executes one pass over every target using the metafile of the build
// that just finished. Passes are serialised. Notifiers are told only when
// every target succeeded.
func (i *Injector) Run(ctx context.Context, metafile string) ([]Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if metafile == "" {
		return nil, errors.NewConfigError(errors.CodeMissingMetafile,
			"build produced no metafile; metafile generation is probably disabled")
	}
	meta, err := outputs.ParseMetafile(metafile)
	if err != nil {
		return nil, errors.NewBuildError(errors.CodeInvalidMetafile, "cannot read metafile", err)
	}

	results := make([]Result, 0, len(i.targets))
	for _, t := range i.targets {
		res, err := i.runTarget(ctx, t, meta)
		if err != nil {
			return results, withTarget(err, t.name)
		}
		results = append(results, res)
	}

	for _, n := range i.notifiers {
		n.PassFinished(results)
	}

	return results, nil
}

func (i *Injector) runTarget(ctx context.Context, t *target, meta *outputs.Metafile) (Result, error) {
	log := i.logger.With("target", t.name)
	perf := logging.StartOperation(log, "inject")

	doc, err := t.loader.Load()
	if err != nil {
		perf.EndWithError(ctx, err)
		return Result{}, err
	}

	refs, err := t.rebaser.Rebase(dom.Head(doc), dom.Body(doc), t.ignore)
	if err != nil {
		perf.EndWithError(ctx, err)
		return Result{}, err
	}

	sel := outputs.Match(meta, t.names, i.build.WorkingDir)
	current := sel.All()
	if t.emitted && !t.cache.Changed(current) {
		log.Debug(ctx, "Outputs unchanged, skipping emission", "outputs", len(current))
		return Result{Target: t.name, Outputs: current, Duration: perf.Elapsed()}, nil
	}

	if err := t.synth.Inject(ctx, doc, sel); err != nil {
		perf.EndWithError(ctx, err)
		return Result{}, err
	}

	report, err := t.emitter.Emit(ctx, emit.Job{
		Doc:      doc,
		OutDir:   i.build.OutDir,
		Filename: t.filename,
		Assets:   refs,
	})
	if err != nil {
		perf.EndWithError(ctx, err)
		return Result{}, err
	}

	t.cache.Commit(current)
	t.emitted = true

	res := Result{
		Target:   t.name,
		Modified: true,
		HTMLPath: report.HTMLPath,
		Outputs:  current,
		Copied:   report.Copied,
		Skipped:  report.Skipped,
		Duration: perf.Elapsed(),
	}
	perf.End(ctx,
		"modified", res.Modified,
		"outputs", len(res.Outputs),
		"copied", len(res.Copied),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// Invalidate forgets every parsed template and forces the next pass to
// emit, as after a template edit.
func (i *Injector) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, t := range i.targets {
		t.loader.Invalidate()
		t.emitted = false
	}
}

// Templates returns the absolute template path of every target.
func (i *Injector) Templates() []string {
	out := make([]string, len(i.targets))
	for n, t := range i.targets {
		out[n] = t.loader.path
	}
	return out
}

// OutDir returns the resolved output directory.
func (i *Injector) OutDir() string {
	return i.build.OutDir
}

func withTarget(err error, name string) error {
	if ie, ok := err.(*errors.InjectError); ok {
		if ie.Target == "" {
			ie.Target = name
		}
		return ie
	}
	return fmt.Errorf("target %s: %w", name, err)
}

func absolute(base, p string) string {
	if !filepath.IsAbs(p) && base != "" {
		p = filepath.Join(base, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

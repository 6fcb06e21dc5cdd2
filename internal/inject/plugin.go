package inject

import (
	"context"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/conneroisu/htmlinject/internal/outputs"
)

// PluginName is the name reported by esbuild for messages from the plugin.
const PluginName = "htmlinject"

// Plugin adapts the injector to esbuild: every build end runs a pass with
// the build's metafile. A failed pass is reported as a build error.
func (i *Injector) Plugin() api.Plugin {
	return api.Plugin{
		Name: PluginName,
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				_, err := i.Run(context.Background(), result.Metafile)
				return api.OnEndResult{}, err
			})
		},
	}
}

// NewPlugin returns a plugin whose injector is configured from the options
// of the build it is attached to.
func NewPlugin(targets []TargetOptions, opts ...Option) api.Plugin {
	return api.Plugin{
		Name: PluginName,
		Setup: func(build api.PluginBuild) {
			inj, err := New(BuildOptionsFrom(build.InitialOptions), targets, opts...)
			if err != nil {
				build.OnStart(func() (api.OnStartResult, error) {
					return api.OnStartResult{}, err
				})
				return
			}
			inj.Plugin().Setup(build)
		},
	}
}

// BuildOptionsFrom extracts the injector's view of an esbuild configuration.
func BuildOptionsFrom(o *api.BuildOptions) BuildOptions {
	if o == nil {
		return BuildOptions{}
	}

	b := BuildOptions{
		WorkingDir: o.AbsWorkingDir,
		OutDir:     o.Outdir,
		PublicPath: o.PublicPath,
		Format:     FormatName(o.Format),
	}
	if b.OutDir == "" && o.Outfile != "" {
		b.OutDir = filepath.Dir(o.Outfile)
	}

	for _, ep := range o.EntryPoints {
		b.EntryNames = append(b.EntryNames, outputs.Stem(ep))
	}
	for _, ep := range o.EntryPointsAdvanced {
		name := ep.OutputPath
		if name == "" {
			name = ep.InputPath
		}
		b.EntryNames = append(b.EntryNames, outputs.Stem(name))
	}

	return b
}

// FormatName maps an esbuild format to its command line spelling.
func FormatName(f api.Format) string {
	switch f {
	case api.FormatESModule:
		return "esm"
	case api.FormatCommonJS:
		return "cjs"
	case api.FormatIIFE:
		return "iife"
	default:
		return ""
	}
}

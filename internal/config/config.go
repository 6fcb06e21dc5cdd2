// Package config loads htmlinject settings with Viper from a YAML file,
// HTMLINJECT_* environment variables and command-line flags.
//
// The build section describes the esbuild invocation, every entry of the
// html section produces one document, and the serve, watch and log sections
// configure the development loop.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/htmlinject/internal/errors"
	"github.com/conneroisu/htmlinject/internal/inject"
)

// Config is the complete htmlinject configuration.
type Config struct {
	Build BuildConfig  `mapstructure:"build" yaml:"build" json:"build"`
	HTML  []HTMLConfig `mapstructure:"html" yaml:"html" json:"html"`
	Serve ServeConfig  `mapstructure:"serve" yaml:"serve" json:"serve"`
	Watch WatchConfig  `mapstructure:"watch" yaml:"watch" json:"watch"`
	Log   LogConfig    `mapstructure:"log" yaml:"log" json:"log"`
}

// BuildConfig mirrors the esbuild options htmlinject drives.
type BuildConfig struct {
	EntryPoints []string `mapstructure:"entry_points" yaml:"entry_points" json:"entry_points"`
	OutDir      string   `mapstructure:"outdir" yaml:"outdir" json:"outdir"`
	Format      string   `mapstructure:"format" yaml:"format" json:"format"`
	PublicPath  string   `mapstructure:"public_path" yaml:"public_path" json:"public_path"`
	WorkingDir  string   `mapstructure:"working_dir" yaml:"working_dir" json:"working_dir"`
	Minify      bool     `mapstructure:"minify" yaml:"minify" json:"minify"`
	Sourcemap   bool     `mapstructure:"sourcemap" yaml:"sourcemap" json:"sourcemap"`
	EntryNames  string   `mapstructure:"entry_names" yaml:"entry_names" json:"entry_names"`
}

// HTMLConfig describes one generated document.
type HTMLConfig struct {
	Template        string   `mapstructure:"template" yaml:"template" json:"template"`
	Filename        string   `mapstructure:"filename" yaml:"filename" json:"filename"`
	EntryPoints     []string `mapstructure:"entry_points" yaml:"entry_points" json:"entry_points"`
	IgnoreAssets    bool     `mapstructure:"ignore_assets" yaml:"ignore_assets" json:"ignore_assets"`
	CrossOrigin     string   `mapstructure:"crossorigin" yaml:"crossorigin" json:"crossorigin"`
	Defer           bool     `mapstructure:"defer" yaml:"defer" json:"defer"`
	Integrity       string   `mapstructure:"integrity" yaml:"integrity" json:"integrity"`
	ScriptPlacement string   `mapstructure:"script_placement" yaml:"script_placement" json:"script_placement"`
	LinkPlacement   string   `mapstructure:"link_placement" yaml:"link_placement" json:"link_placement"`
}

// ServeConfig configures the development server.
type ServeConfig struct {
	Host       string `mapstructure:"host" yaml:"host" json:"host"`
	Port       int    `mapstructure:"port" yaml:"port" json:"port"`
	LiveReload bool   `mapstructure:"live_reload" yaml:"live_reload" json:"live_reload"`
}

// WatchConfig configures the file watcher that triggers rebuilds.
type WatchConfig struct {
	Paths    []string      `mapstructure:"paths" yaml:"paths" json:"paths"`
	Ignore   []string      `mapstructure:"ignore" yaml:"ignore" json:"ignore"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// SetDefaults registers default values on v. Every key gets one so that
// HTMLINJECT_* variables reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("build.entry_points", []string{})
	v.SetDefault("build.outdir", "")
	v.SetDefault("build.public_path", "")
	v.SetDefault("build.minify", false)
	v.SetDefault("build.sourcemap", false)
	v.SetDefault("build.format", "esm")
	v.SetDefault("build.working_dir", ".")
	v.SetDefault("build.entry_names", "[name]")
	v.SetDefault("serve.host", "localhost")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.live_reload", true)
	v.SetDefault("watch.paths", []string{"."})
	v.SetDefault("watch.ignore", []string{"node_modules", ".git"})
	v.SetDefault("watch.debounce", 100*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// DefaultConfig returns the configuration used when nothing is set. Its
// output directory is empty and must be filled in before Validate passes.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Format:     "esm",
			WorkingDir: ".",
			EntryNames: "[name]",
		},
		HTML: []HTMLConfig{{Template: inject.DefaultTemplate}},
		Serve: ServeConfig{
			Host:       "localhost",
			Port:       8080,
			LiveReload: true,
		},
		Watch: WatchConfig{
			Paths:    []string{"."},
			Ignore:   []string{"node_modules", ".git"},
			Debounce: 100 * time.Millisecond,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode applies defaults and unmarshals v without validating.
func Decode(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		decodeErr := errors.NewConfigError(errors.CodeInvalidConfig, "cannot decode configuration")
		decodeErr.Cause = err
		return nil, decodeErr
	}

	if len(cfg.HTML) == 0 {
		cfg.HTML = []HTMLConfig{{Template: inject.DefaultTemplate}}
	}
	return &cfg, nil
}

// InjectOptions returns the injector's view of the build section.
func (c *Config) InjectOptions() inject.BuildOptions {
	return inject.BuildOptions{
		WorkingDir: c.Build.WorkingDir,
		OutDir:     c.Build.OutDir,
		PublicPath: c.Build.PublicPath,
		Format:     c.Build.Format,
		EntryNames: append([]string(nil), c.Build.EntryPoints...),
	}
}

// Targets returns one target per html entry.
func (c *Config) Targets() []inject.TargetOptions {
	out := make([]inject.TargetOptions, len(c.HTML))
	for i, h := range c.HTML {
		out[i] = inject.TargetOptions{
			Template:        h.Template,
			Filename:        h.Filename,
			EntryNames:      h.EntryPoints,
			IgnoreAssets:    h.IgnoreAssets,
			CrossOrigin:     h.CrossOrigin,
			Defer:           h.Defer,
			Integrity:       h.Integrity,
			ScriptPlacement: h.ScriptPlacement,
			LinkPlacement:   h.LinkPlacement,
		}
	}
	return out
}

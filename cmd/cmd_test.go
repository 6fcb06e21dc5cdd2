package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlinject/internal/config"
	"github.com/conneroisu/htmlinject/internal/inject"
	"github.com/conneroisu/htmlinject/internal/logging"
)

const projectConfig = `
build:
  entry_points: [src/app.ts]
  outdir: dist
html:
  - template: src/index.html
`

const indexTemplate = `<!DOCTYPE html>
<html>
<head><title>demo</title><link rel="icon" href="favicon.ico"></head>
<body><main></main></body>
</html>`

// newProject lays out a small esbuild project in a temporary directory and
// makes it the working directory.
func newProject(t *testing.T, cfg string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		".htmlinject.yml":   cfg,
		"src/app.ts":        "import \"./app.css\";\nconsole.log(\"hi\");\n",
		"src/app.css":       "main { color: red; }\n",
		"src/favicon.ico":   "icon",
		"src/index.html":    indexTemplate,
		"node_modules/x.js": "",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// execute runs the root command with args against fresh global state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	cfgFile = ""
	resetFlags(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		resetFlags(c.Flags())
		for _, sub := range c.Commands() {
			resetFlags(sub.Flags())
		}
	}
	bindRootFlags()
	bindServeFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func readFile(t *testing.T, dir, rel string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(raw)
}

func TestBuildCommand(t *testing.T) {
	dir := newProject(t, projectConfig)

	out, err := execute(t, "build")
	require.NoError(t, err, out)

	page := readFile(t, dir, "dist/index.html")
	assert.Contains(t, page, `<link rel="icon" href="favicon.ico"/>`)
	assert.Contains(t, page, `<link rel="stylesheet" href="app.css"/>`)
	assert.Contains(t, page, `<script src="app.js" type="module"></script>`)
	assert.Equal(t, "icon", readFile(t, dir, "dist/favicon.ico"))
	assert.Contains(t, out, "index.html -> ")
}

func TestBuildCommandFlagsOverrideFile(t *testing.T) {
	dir := newProject(t, projectConfig)

	out, err := execute(t, "build", "--outdir", "public", "--public-path", "/static", "--bundle-format", "iife")
	require.NoError(t, err, out)

	page := readFile(t, dir, "public/index.html")
	assert.Contains(t, page, `<script src="/static/app.js"></script>`)
	assert.Contains(t, page, `<link rel="icon" href="/static/favicon.ico"/>`)
	_, err = os.Stat(filepath.Join(dir, "dist"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuildCommandReportsPluginFailure(t *testing.T) {
	newProject(t, `
build:
  entry_points: [src/app.ts]
  outdir: dist
html:
  - template: src/missing.html
`)

	_, err := execute(t, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build failed")
}

func TestInspectCommand(t *testing.T) {
	dir := newProject(t, projectConfig)

	out, err := execute(t, "inspect", "--format", "json")
	require.NoError(t, err, out)

	var found []inject.Inspection
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "index.html", found[0].Target)
	require.Len(t, found[0].Assets, 1)
	assert.Equal(t, "favicon.ico", found[0].Assets[0].Original)
	assert.Equal(t, filepath.Join(dir, "src", "favicon.ico"), found[0].Assets[0].Input)

	_, err = os.Stat(filepath.Join(dir, "dist"))
	assert.True(t, os.IsNotExist(err), "inspect must not write")

	out, err = execute(t, "inspect")
	require.NoError(t, err, out)
	assert.Contains(t, out, "TARGET")
	assert.Contains(t, out, "favicon.ico")

	_, err = execute(t, "inspect", "--format", "xml")
	assert.Error(t, err)
}

func TestConfigValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		cfg     string
		args    []string
		wantErr bool
		want    string
	}{
		{
			name: "valid",
			cfg:  projectConfig,
			want: "Configuration is valid.",
		},
		{
			name:    "missing outdir",
			cfg:     "build:\n  entry_points: [src/app.ts]\n",
			wantErr: true,
			want:    "build.outdir",
		},
		{
			name: "warning passes",
			cfg:  projectConfig + "    integrity: sha256\n",
			want: "warnings",
		},
		{
			name:    "warning fails in strict mode",
			cfg:     projectConfig + "    integrity: sha256\n",
			args:    []string{"--strict"},
			wantErr: true,
			want:    "warning:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newProject(t, tt.cfg)

			out, err := execute(t, append([]string{"config", "validate"}, tt.args...)...)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err, out)
			}
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestConfigShowCommand(t *testing.T) {
	newProject(t, projectConfig)
	t.Setenv("HTMLINJECT_SERVE_PORT", "9090")

	out, err := execute(t, "config", "show")
	require.NoError(t, err, out)
	assert.Contains(t, out, "outdir: dist")
	assert.Contains(t, out, "port: 9090")
	assert.Contains(t, out, "template: src/index.html")

	out, err = execute(t, "config", "show", "--format", "json")
	require.NoError(t, err, out)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out[strings.Index(out, "{"):]), &cfg))
	assert.Equal(t, []string{"src/app.ts"}, cfg.Build.EntryPoints)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	out, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]*cobra.Command)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = c
	}
	for _, want := range []string{"build", "watch", "serve", "inspect", "config", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestDevLoopRebuildsOnChange(t *testing.T) {
	dir := newProject(t, projectConfig)

	cfg := config.DefaultConfig()
	cfg.Build.WorkingDir = dir
	cfg.Build.OutDir = "dist"
	cfg.Build.EntryPoints = []string{"src/app.ts"}
	cfg.HTML = []config.HTMLConfig{{Template: "src/index.html"}}
	cfg.Watch.Debounce = 20 * time.Millisecond

	var out bytes.Buffer
	passes := make(chan []inject.Result, 16)
	loop, err := newDevLoop(cfg, logging.Nop(), &out, inject.NotifierFunc(func(r []inject.Result) {
		passes <- r
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitPass := func() []inject.Result {
		t.Helper()
		select {
		case r := <-passes:
			return r
		case <-time.After(10 * time.Second):
			t.Fatal("no pass finished")
			return nil
		}
	}

	first := waitPass()
	require.Len(t, first, 1)
	assert.True(t, first[0].Modified)
	assert.NotContains(t, readFile(t, dir, "dist/index.html"), "generator")

	// A template edit rewrites the document although no bundle changed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "index.html"),
		[]byte(strings.Replace(indexTemplate, "<title>", `<meta name="generator" content="htmlinject"><title>`, 1)), 0o644))
	for {
		r := waitPass()
		if r[0].Modified {
			break
		}
	}
	assert.Contains(t, readFile(t, dir, "dist/index.html"), `<meta name="generator" content="htmlinject"/>`)

	// A broken source is reported and the loop keeps going.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "app.ts"), []byte("console.log(;\n"), 0o644))
	require.Eventually(t, func() bool { return loop.Err() != nil }, 10*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "app.ts"), []byte("console.log(\"fixed\");\n"), 0o644))
	for {
		r := waitPass()
		if r[0].Modified {
			break
		}
	}
	assert.Contains(t, readFile(t, dir, "dist/app.js"), "fixed")
}

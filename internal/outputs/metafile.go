// Package outputs selects the bundler outputs that belong to an HTML target
// and tracks whether that selection changed between builds.
package outputs

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Metafile is the subset of esbuild's metafile the injector reads.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput describes one bundler input.
type MetafileInput struct {
	Bytes int `json:"bytes"`
}

// MetafileOutput describes one emitted file. Paths are relative to the
// build's working directory.
type MetafileOutput struct {
	Bytes      int              `json:"bytes"`
	EntryPoint string           `json:"entryPoint,omitempty"`
	CSSBundle  string           `json:"cssBundle,omitempty"`
	Imports    []MetafileImport `json:"imports,omitempty"`
	Exports    []string         `json:"exports,omitempty"`
}

// MetafileImport is an import edge recorded on an output.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// ParseMetafile decodes the JSON metafile produced by a build.
func ParseMetafile(data string) (*Metafile, error) {
	if strings.TrimSpace(data) == "" {
		return nil, fmt.Errorf("metafile is empty")
	}
	var m Metafile
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("decoding metafile: %w", err)
	}
	return &m, nil
}

// Selection holds the absolute paths of the outputs chosen for a target.
type Selection struct {
	CSS []string `json:"css" yaml:"css"`
	JS  []string `json:"js" yaml:"js"`
}

// All returns the CSS outputs followed by the JS outputs.
func (s Selection) All() []string {
	out := make([]string, 0, len(s.CSS)+len(s.JS))
	out = append(out, s.CSS...)
	return append(out, s.JS...)
}

// Len returns the number of selected outputs.
func (s Selection) Len() int {
	return len(s.CSS) + len(s.JS)
}

// Match selects the outputs whose name, or whose entry point's name, equals
// one of names once directory and extension are dropped. A CSS bundle
// attached to a selected output is selected with it. With no names every
// entry point output is selected. Paths are resolved against workingDir.
func Match(m *Metafile, names []string, workingDir string) Selection {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[Stem(n)] = struct{}{}
	}

	picked := make(map[string]struct{})
	for path, out := range m.Outputs {
		if !selected(path, out, want) {
			continue
		}
		picked[path] = struct{}{}
		if out.CSSBundle != "" {
			picked[out.CSSBundle] = struct{}{}
		}
	}

	var sel Selection
	for path := range picked {
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(workingDir, filepath.FromSlash(path))
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".css":
			sel.CSS = append(sel.CSS, abs)
		case ".js", ".mjs":
			sel.JS = append(sel.JS, abs)
		}
	}
	sort.Strings(sel.CSS)
	sort.Strings(sel.JS)

	return sel
}

func selected(path string, out MetafileOutput, want map[string]struct{}) bool {
	if len(want) == 0 {
		return out.EntryPoint != ""
	}
	if _, ok := want[Stem(path)]; ok {
		return true
	}
	if out.EntryPoint == "" {
		return false
	}
	_, ok := want[Stem(out.EntryPoint)]
	return ok
}

// Stem returns the base name of p without its extension.
func Stem(p string) string {
	base := filepath.Base(filepath.FromSlash(p))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

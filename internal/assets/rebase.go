// Package assets discovers local asset references in a template and rewrites
// them to the location they will have in the output directory.
package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/conneroisu/htmlinject/internal/cssurl"
	"github.com/conneroisu/htmlinject/internal/dom"
)

// Reference is one rebased asset.
type Reference struct {
	// Original is the reference as written in the template.
	Original string `json:"original" yaml:"original"`
	// Input is the absolute path of the source file.
	Input string `json:"input" yaml:"input"`
	// Output is the path the file is copied to.
	Output string `json:"output" yaml:"output"`
	// URL is the rewritten reference.
	URL string `json:"url" yaml:"url"`
	// Element names the tag the reference was found on.
	Element string `json:"element" yaml:"element"`
}

// Rebaser rewrites references relative to TemplateDir into references under
// PublicPath, with files landing in OutDir.
type Rebaser struct {
	TemplateDir string
	OutDir      string
	PublicPath  string
}

// Rebase rewrites href on link children of head, src on script children of
// head and body, and url() references inside every style element below
// either. It
// returns the rewritten references in that order. With ignore set the tree
// is left untouched and nothing is returned.
func (r *Rebaser) Rebase(head, body *html.Node, ignore bool) ([]Reference, error) {
	if ignore {
		return nil, nil
	}

	var refs []Reference

	groups := []struct {
		parent *html.Node
		tag    string
		attr   string
	}{
		{head, "link", "href"},
		{head, "script", "src"},
		{body, "script", "src"},
	}
	for _, g := range groups {
		for _, n := range dom.FindAll(g.parent, g.tag) {
			val, ok := dom.Attr(n, g.attr)
			if !ok {
				continue
			}
			ref, ok, err := r.rebase(val)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			ref.Element = g.tag
			dom.SetAttr(n, g.attr, ref.URL)
			refs = append(refs, ref)
		}
	}

	for _, parent := range []*html.Node{head, body} {
		for _, style := range dom.Descendants(parent, "style") {
			for _, text := range dom.TextNodes(style) {
				found, err := r.rebaseCSS(text)
				if err != nil {
					return nil, err
				}
				refs = append(refs, found...)
			}
		}
	}

	return refs, nil
}

// rebaseCSS substitutes each url() payload in the text node with its rebased
// value. Payloads are replaced at the positions the scanner reported, so a
// skipped reference is never rewritten even when a local one is a substring
// of it.
func (r *Rebaser) rebaseCSS(text *html.Node) ([]Reference, error) {
	var refs []Reference

	css := text.Data
	var b strings.Builder
	last := 0
	for _, tok := range cssurl.Tokens(css) {
		ref, ok, err := r.rebase(tok.Value)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		b.WriteString(css[last:tok.Start])
		b.WriteString(ref.URL)
		last = tok.End

		ref.Element = "style"
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil, nil
	}
	b.WriteString(css[last:])
	text.Data = b.String()

	return refs, nil
}

func (r *Rebaser) rebase(raw string) (Reference, bool, error) {
	if !Classify(raw).Rebasable() {
		return Reference{}, false, nil
	}

	rel, suffix := SplitSuffix(strings.TrimSpace(raw))
	input, err := filepath.Abs(filepath.Join(r.TemplateDir, filepath.FromSlash(rel)))
	if err != nil {
		return Reference{}, false, fmt.Errorf("resolving %q: %w", raw, err)
	}
	name := filepath.Base(input)

	return Reference{
		Original: raw,
		Input:    input,
		Output:   filepath.Join(r.OutDir, name),
		URL:      PublicURL(r.PublicPath, name) + suffix,
	}, true, nil
}

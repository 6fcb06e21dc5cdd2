// Package tags builds <link> and <script> elements for bundler outputs and
// splices them into a document.
package tags

import (
	"context"
	"path/filepath"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/htmlinject/internal/assets"
	"github.com/conneroisu/htmlinject/internal/dom"
	"github.com/conneroisu/htmlinject/internal/outputs"
)

// Synthesizer creates tags for a single target.
type Synthesizer struct {
	opts Options
}

// New returns a Synthesizer. Zero placement values take their defaults.
func New(opts Options) *Synthesizer {
	if opts.ScriptPlacement == "" {
		opts.ScriptPlacement = BodyBelow
	}
	if opts.LinkPosition == "" {
		opts.LinkPosition = Below
	}
	return &Synthesizer{opts: opts}
}

// Link builds a stylesheet link for the output file at path.
func (s *Synthesizer) Link(path string) (*html.Node, error) {
	n := dom.NewElement(atom.Link,
		html.Attribute{Key: "rel", Val: "stylesheet"},
		html.Attribute{Key: "href", Val: s.url(path)},
	)
	return n, s.decorate(n, path)
}

// Script builds a script tag for the output file at path.
func (s *Synthesizer) Script(path string) (*html.Node, error) {
	n := dom.NewElement(atom.Script, html.Attribute{Key: "src", Val: s.url(path)})
	switch {
	case s.opts.Module:
		dom.SetAttr(n, "type", "module")
	case s.opts.Defer:
		dom.SetAttr(n, "defer", "")
	}
	return n, s.decorate(n, path)
}

func (s *Synthesizer) url(path string) string {
	return assets.PublicURL(s.opts.PublicPath, filepath.Base(path))
}

func (s *Synthesizer) decorate(n *html.Node, path string) error {
	if s.opts.CrossOrigin != "" {
		dom.SetAttr(n, "crossorigin", s.opts.CrossOrigin)
	}
	if s.opts.Integrity == NoIntegrity {
		return nil
	}
	sri, err := Integrity(s.opts.Integrity, path)
	if err != nil {
		return err
	}
	dom.SetAttr(n, "integrity", sri)
	return nil
}

// Inject builds a tag for every selected output and inserts them. Links go
// to <head>; scripts go where the placement says. Elements are built
// concurrently and inserted in selection order.
func (s *Synthesizer) Inject(ctx context.Context, doc *html.Node, sel outputs.Selection) error {
	links := make([]*html.Node, len(sel.CSS))
	scripts := make([]*html.Node, len(sel.JS))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range sel.CSS {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := s.Link(p)
			links[i] = n
			return err
		})
	}
	for i, p := range sel.JS {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := s.Script(p)
			scripts[i] = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	head := dom.Head(doc)
	splice(head, Index(head, s.opts.LinkPosition, "link", "style"), links)

	parent := dom.Body(doc)
	if s.opts.ScriptPlacement.InHead() {
		parent = head
	}
	splice(parent, Index(parent, s.opts.ScriptPlacement.Position(), "script"), scripts)

	return nil
}

// Index returns the child index at which new tags go: after the last
// existing tag for Below, at the first for Above, and 0 when parent holds
// none of tags.
func Index(parent *html.Node, pos Position, tags ...string) int {
	existing := dom.FindAll(parent, tags...)
	if len(existing) == 0 {
		return 0
	}
	if pos == Above {
		return dom.ChildIndex(parent, existing[0])
	}
	return dom.ChildIndex(parent, existing[len(existing)-1]) + 1
}

func splice(parent *html.Node, index int, nodes []*html.Node) {
	for i, n := range nodes {
		dom.InsertAt(parent, index+i, n)
	}
}

package inject

import (
	"bytes"
	"os"
	"sync"

	"golang.org/x/net/html"

	"github.com/conneroisu/htmlinject/internal/dom"
	"github.com/conneroisu/htmlinject/internal/errors"
)

// templateLoader reads and parses a template once and hands out copies.
type templateLoader struct {
	path string

	mu  sync.Mutex
	doc *html.Node
}

func newTemplateLoader(path string) *templateLoader {
	return &templateLoader{path: path}
}

// Load returns a private copy of the parsed template. Failures are not
// cached so a later call retries the read.
func (l *templateLoader) Load() (*html.Node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.doc == nil {
		raw, err := os.ReadFile(l.path)
		if err != nil {
			return nil, errors.NewTemplateError(errors.CodeTemplateRead, l.path, err)
		}
		doc, err := dom.Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, errors.NewTemplateError(errors.CodeTemplateParse, l.path, err)
		}
		l.doc = doc
	}

	return dom.Clone(l.doc), nil
}

// Invalidate drops the parsed template so the next Load reads it again.
func (l *templateLoader) Invalidate() {
	l.mu.Lock()
	l.doc = nil
	l.mu.Unlock()
}

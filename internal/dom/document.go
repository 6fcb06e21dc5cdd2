// Package dom adapts golang.org/x/net/html into the mutable document model
// used by the injection pipeline.
//
// A parsed document is normalised so that it always holds exactly one
// doctype and one <html> element with <head> and <body> children. Nodes are
// owned by a single tree; the Parent pointer on html.Node is only used for
// attachment and never for ownership.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// Parse decodes r to UTF-8, parses it as HTML and normalises the result.
func Parse(r io.Reader) (*html.Node, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	enc, _, _ := charset.DetermineEncoding(raw, "text/html")
	doc, err := html.Parse(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}

	Normalize(doc)
	return doc, nil
}

// ParseString is Parse for in-memory templates.
func ParseString(s string) (*html.Node, error) {
	return Parse(strings.NewReader(s))
}

// Render serialises the document.
func Render(w io.Writer, doc *html.Node) error {
	return html.Render(w, doc)
}

// RenderString serialises the document to a string.
func RenderString(doc *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Normalize makes doc hold a doctype and an <html> element containing
// <head> and <body>. Missing elements are synthesised empty. Top-level
// content that is neither a doctype, a comment nor <html> is moved into
// <body>, as is stray content directly under <html>.
func Normalize(doc *html.Node) {
	root := findChild(doc, atom.Html)
	if root == nil {
		root = NewElement(atom.Html)
		doc.AppendChild(root)
	}

	head := findChild(root, atom.Head)
	body := findChild(root, atom.Body)
	if body == nil {
		body = NewElement(atom.Body)
		root.AppendChild(body)
	}
	if head == nil {
		head = NewElement(atom.Head)
		root.InsertBefore(head, body)
	}

	adoptOrphans(doc, root, body)
	adoptOrphans(root, head, body)

	if findDoctype(doc) == nil {
		prependChild(doc, &html.Node{Type: html.DoctypeNode, Data: "html"})
	}
}

// adoptOrphans moves children of parent that are not allowed to live there
// into body. keep is the element besides body that stays in place.
func adoptOrphans(parent, keep, body *html.Node) {
	var orphans, junk []*html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == keep || c == body {
			continue
		}
		switch c.Type {
		case html.DoctypeNode, html.CommentNode:
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				orphans = append(orphans, c)
			}
		case html.ElementNode, html.RawNode:
			orphans = append(orphans, c)
		case html.DocumentNode, html.ErrorNode:
			junk = append(junk, c)
		}
	}

	for _, n := range junk {
		parent.RemoveChild(n)
	}

	for _, n := range orphans {
		parent.RemoveChild(n)
		body.AppendChild(n)
	}
}

// NewElement creates a detached element for a known tag.
func NewElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

// Head returns the document's <head> element.
func Head(doc *html.Node) *html.Node {
	return htmlquery.FindOne(doc, "/html/head")
}

// Body returns the document's <body> element.
func Body(doc *html.Node) *html.Node {
	return htmlquery.FindOne(doc, "/html/body")
}

// FindAll returns the direct children of parent whose tag is one of tags,
// in document order.
func FindAll(parent *html.Node, tags ...string) []*html.Node {
	if parent == nil {
		return nil
	}
	var out []*html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tags...) {
			out = append(out, c)
		}
	}
	return out
}

// Descendants returns every element named tag below n, in document order.
func Descendants(n *html.Node, tag string) []*html.Node {
	if n == nil {
		return nil
	}
	return htmlquery.Find(n, ".//"+tag)
}

// Doctypes returns every doctype node directly under doc.
func Doctypes(doc *html.Node) []*html.Node {
	var out []*html.Node
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			out = append(out, c)
		}
	}
	return out
}

func findChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == a || c.Data == a.String()) {
			return c
		}
	}
	return nil
}

func findDoctype(doc *html.Node) *html.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			return c
		}
	}
	return nil
}

func prependChild(n, child *html.Node) {
	if n.FirstChild == nil {
		n.AppendChild(child)
	} else {
		n.InsertBefore(child, n.FirstChild)
	}
}

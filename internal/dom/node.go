package dom

import (
	"golang.org/x/net/html"
)

// Attr returns the value of the first attribute named key.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr overwrites the first attribute named key in place, or appends it.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// IsElement reports whether n is an element named tag.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// Children returns the direct children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ChildIndex returns the position of child among parent's children, or -1.
func ChildIndex(parent, child *html.Node) int {
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			return i
		}
		i++
	}
	return -1
}

// InsertAt inserts n as the index-th child of parent. An index at or past the
// end appends.
func InsertAt(parent *html.Node, index int, n *html.Node) {
	ref := parent.FirstChild
	for i := 0; ref != nil && i < index; i++ {
		ref = ref.NextSibling
	}
	if ref == nil {
		parent.AppendChild(n)
		return
	}
	parent.InsertBefore(n, ref)
}

// Clone returns a deep copy of n detached from any parent.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}

	switch n.Type {
	case html.DocumentNode, html.ElementNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			c.AppendChild(Clone(child))
		}
	case html.TextNode, html.CommentNode, html.DoctypeNode, html.RawNode, html.ErrorNode:
	}
	return c
}

// TextNodes returns the direct text children of n.
func TextNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			out = append(out, c)
		}
	}
	return out
}

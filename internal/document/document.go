// Package document is a read-only structural view over a rendered registry page.
package document

import (
	"bytes"
	"fmt"
	"io"

	"agencyharvest/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Tree is a parsed page. It never mutates the session it was read from.
type Tree struct {
	doc *goquery.Document
}

// Node is a sub-region of a Tree.
type Node struct {
	sel *goquery.Selection
}

func Parse(r io.Reader) (*Tree, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Tree{doc: doc}, nil
}

func ParseBytes(body []byte) (*Tree, error) {
	return Parse(bytes.NewReader(body))
}

// ByID finds the element with the given id attribute.
func (t *Tree) ByID(id string) (Node, bool) {
	sel := t.doc.Find(fmt.Sprintf(`[id="%s"]`, id)).First()
	if sel.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: sel}, true
}

// Has reports whether an element with the given id exists.
func (t *Tree) Has(id string) bool {
	_, ok := t.ByID(id)
	return ok
}

// HTML returns the serialized page, it is meant for diagnostics.
func (t *Tree) HTML() string {
	out, err := t.doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// Selection exposes the underlying goquery selection for callers that need form details.
func (t *Tree) Selection() *goquery.Selection {
	return t.doc.Selection
}

// Exists reports whether the node refers to an element.
func (n Node) Exists() bool {
	return n.sel != nil && n.sel.Length() > 0
}

// Find returns the first descendant matching a CSS selector.
func (n Node) Find(selector string) (Node, bool) {
	if !n.Exists() {
		return Node{}, false
	}
	sel := n.sel.Find(selector).First()
	if sel.Length() == 0 {
		return Node{}, false
	}
	return Node{sel: sel}, true
}

// FindAll returns every descendant matching a CSS selector.
func (n Node) FindAll(selector string) []Node {
	if !n.Exists() {
		return nil
	}
	var out []Node
	n.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, Node{sel: s})
	})
	return out
}

// ByClass returns every descendant carrying the class.
func (n Node) ByClass(class string) []Node {
	return n.FindAll("." + class)
}

// Text returns the visible text of the node as laid out by a browser, lines
// separated by "\n" and trimmed.
func (n Node) Text() string {
	if !n.Exists() {
		return ""
	}
	return htmlutil.RenderText(n.sel.Get(0))
}

// Visible reports whether neither the node nor any ancestor is hidden.
func (n Node) Visible() bool {
	if !n.Exists() {
		return false
	}
	return htmlutil.IsVisible(n.sel.Get(0))
}

// Attr returns the value of an attribute of the node.
func (n Node) Attr(name string) (string, bool) {
	if !n.Exists() {
		return "", false
	}
	return n.sel.Attr(name)
}

package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true, atom.Hr: true,
	atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true, atom.P: true,
	atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(node *html.Node, class string) bool {
	classes, ok := attr(node, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == class {
			return true
		}
	}
	return false
}

// IsHidden reports whether an element hides itself (not considering its ancestors).
func IsHidden(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	if _, ok := attr(node, "hidden"); ok {
		return true
	}
	if hasClass(node, "w3-hide") {
		return true
	}
	if node.DataAtom == atom.Input {
		if t, _ := attr(node, "type"); strings.EqualFold(t, "hidden") {
			return true
		}
	}
	style, ok := attr(node, "style")
	if !ok {
		return false
	}
	style = strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.Contains(style, "display:none") ||
		strings.Contains(style, "visibility:hidden")
}

// IsVisible reports whether neither the node nor any of its ancestors is hidden.
func IsVisible(node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if IsHidden(n) {
			return false
		}
	}
	return true
}

// RenderText returns the text of a node the way a browser would lay it out: <br> and
// block elements start new lines, runs of whitespace collapse, hidden elements are
// skipped and every line is trimmed. Empty lines are dropped.
func RenderText(node *html.Node) string {
	var buffer strings.Builder
	renderRecursive(node, &buffer)

	lines := strings.Split(buffer.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func renderRecursive(node *html.Node, buffer *strings.Builder) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(innerWhitespace.ReplaceAllString(node.Data, " "))
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if IsHidden(node) {
			return
		}
		switch node.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Head:
			return
		case atom.Br:
			buffer.WriteByte('\n')
			return
		}
	}

	block := node.Type == html.ElementNode && blockElements[node.DataAtom]
	if block {
		buffer.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		renderRecursive(child, buffer)
	}
	if block {
		buffer.WriteByte('\n')
	}
}

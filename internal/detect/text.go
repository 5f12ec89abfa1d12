package detect

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements get line breaks around their text so adjacent blocks do not
// run together.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Pre: true, atom.Table: true, atom.Tr: true, atom.Td: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Legend: true, atom.Label: true, atom.Blockquote: true,
}

// innerText approximates the rendered text of n. With skipCode set, editor
// widgets and preformatted blocks are left out; they are extracted
// separately as code.
func innerText(n *html.Node, skipCode bool) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Input, atom.Textarea:
				return
			case atom.Br:
				b.WriteByte('\n')
				return
			}
			if skipCode && isCodeNode(n) {
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	walk(n)
	return b.String()
}

// codeText returns the raw text of a code line, keeping indentation.
func codeText(n *html.Node, skip func(*html.Node) bool) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
			if skip != nil && skip(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimRight(strings.ReplaceAll(b.String(), "\u00a0", " "), " \t\r\n")
}

// isCodeNode reports whether n is an editor widget or a preformatted block.
func isCodeNode(n *html.Node) bool {
	if n.DataAtom == atom.Pre {
		return true
	}
	for _, cls := range strings.Fields(attr(n, "class")) {
		switch {
		case strings.HasPrefix(cls, "monaco-editor"),
			strings.HasPrefix(cls, "CodeMirror"),
			cls == "cm-editor",
			cls == "view-lines":
			return true
		}
	}
	return false
}

// matcher returns a predicate matching nodes against a selector group.
func matcher(selector string) func(*html.Node) bool {
	if selector == "" {
		return nil
	}
	return func(n *html.Node) bool {
		return goquery.NewDocumentFromNode(n).Selection.Is(selector)
	}
}

// collapse folds every whitespace run, including non-breaking spaces, into
// a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

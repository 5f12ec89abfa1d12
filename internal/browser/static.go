package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/abhisek/quizmate/internal/quiz"
)

// StaticPage is a saved HTML document. Selections are written into the
// parsed tree as checked attributes and can be saved with Render.
type StaticPage struct {
	url string
	doc *goquery.Document
}

// NewStaticPage parses r. pageURL is reported by URL and may carry the
// course and quiz identifiers of the original page.
func NewStaticPage(r io.Reader, pageURL string) (*StaticPage, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("browser: parse document: %w", err)
	}
	return &StaticPage{url: pageURL, doc: doc}, nil
}

// OpenFile loads a saved page. Without pageURL the file URL is used.
func OpenFile(path, pageURL string) (*StaticPage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if pageURL == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		pageURL = "file://" + filepath.ToSlash(abs)
	}
	return NewStaticPage(f, pageURL)
}

func (s *StaticPage) URL() string { return s.url }

// Document returns the same parsed tree on every call, so option controls
// from detection point into it.
func (s *StaticPage) Document(context.Context) (*goquery.Document, error) {
	return s.doc, nil
}

// Select sets the checked attribute on chosen controls and clears it on
// the others.
func (s *StaticPage) Select(_ context.Context, q quiz.Question, indices []int) error {
	for i, o := range q.Options {
		if o.Control == nil {
			return fmt.Errorf("browser: option %d has no control", i)
		}
		setChecked(o.Control, slices.Contains(indices, i))
	}
	return nil
}

// Render writes the document, including selections, to w.
func (s *StaticPage) Render(w io.Writer) error {
	for _, n := range s.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return err
		}
	}
	return nil
}

func setChecked(n *html.Node, want bool) {
	isInput := n.Data == "input"
	name, value := "checked", ""
	if !isInput {
		name = "aria-checked"
		value = "false"
		if want {
			value = "true"
		}
	}

	for i, a := range n.Attr {
		if a.Key != name {
			continue
		}
		if isInput && !want {
			n.Attr = slices.Delete(n.Attr, i, i+1)
			return
		}
		n.Attr[i].Val = value
		return
	}
	if want || !isInput {
		n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
	}
}

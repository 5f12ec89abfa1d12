package detect

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/abhisek/quizmate/internal/quiz"
)

const maxValueLength = 50

type optionCandidate struct {
	element *html.Node
	control *html.Node
}

// optionCandidates unions the option selectors, keeping only the outermost
// element when matches nest. With no matches it falls back to bare radio and
// checkbox inputs and their labelling ancestors.
func (d *Detector) optionCandidates(c *goquery.Selection) []optionCandidate {
	nodes := unionNodes(c, d.cfg.OptionSelectors)
	if len(nodes) > 0 {
		set := make(map[*html.Node]bool, len(nodes))
		for _, n := range nodes {
			set[n] = true
		}
		out := make([]optionCandidate, 0, len(nodes))
		for _, n := range nodes {
			if n.Parent != nil && hasAncestorIn(n.Parent, set, c.Get(0)) {
				continue
			}
			out = append(out, optionCandidate{element: n, control: resolveControl(n)})
		}
		return out
	}

	var out []optionCandidate
	seen := make(map[*html.Node]bool)
	c.Find(choiceControls).Each(func(_ int, input *goquery.Selection) {
		el := labelFor(c, input)
		if seen[el] {
			return
		}
		seen[el] = true
		out = append(out, optionCandidate{element: el, control: input.Get(0)})
	})
	return out
}

// labelFor walks up from a bare input to the element that labels it: an
// enclosing <label>, a <label for=id> in the container, or the parent.
func labelFor(c *goquery.Selection, input *goquery.Selection) *html.Node {
	if label := input.Closest("label"); label.Length() > 0 {
		return label.Get(0)
	}
	if id, ok := input.Attr("id"); ok && id != "" {
		if label := c.Find(fmt.Sprintf(`label[for=%q]`, id)); label.Length() > 0 {
			return label.Get(0)
		}
	}
	if p := input.Get(0).Parent; p != nil && p.Type == html.ElementNode {
		return p
	}
	return input.Get(0)
}

// resolveControl finds the selectable control behind an option element.
func resolveControl(n *html.Node) *html.Node {
	s := goquery.NewDocumentFromNode(n).Selection
	if s.Is(choiceControls) {
		return n
	}
	if in := s.Find(choiceControls).First(); in.Length() > 0 {
		return in.Get(0)
	}
	if s.Is(`[role="radio"], [role="checkbox"]`) {
		return n
	}
	if r := s.Find(`[role="radio"], [role="checkbox"]`).First(); r.Length() > 0 {
		return r.Get(0)
	}
	return nil
}

func isCheckbox(control *html.Node) bool {
	if control == nil {
		return false
	}
	if control.Data == "input" {
		return strings.EqualFold(attr(control, "type"), "checkbox")
	}
	return attr(control, "role") == "checkbox"
}

// buildOptions turns candidates into Options, dropping empty ones and any
// that reuse a control already taken.
func (d *Detector) buildOptions(candidates []optionCandidate) []quiz.Option {
	options := make([]quiz.Option, 0, len(candidates))
	usedControls := make(map[*html.Node]bool)
	for _, cand := range candidates {
		if cand.control != nil {
			if usedControls[cand.control] {
				continue
			}
			usedControls[cand.control] = true
		}

		text := d.optionText(cand.element)
		if text == "" {
			continue
		}
		opt := quiz.Option{
			Text:    text,
			Value:   optionValue(cand.control, text, len(options)),
			Control: cand.control,
		}
		if cand.control != nil {
			opt.Selector = cssPath(cand.control)
		}
		options = append(options, opt)
	}
	return options
}

// optionText prefers an embedded code snippet, then the option's text
// element, then the element's own text without an enumerator.
func (d *Detector) optionText(el *html.Node) string {
	s := goquery.NewDocumentFromNode(el).Selection

	if code := d.codeLines(s, d.cfg.OptionCodeSelectors, nil); len(strings.TrimSpace(code)) > d.cfg.MinOptionCodeLength {
		return fence(code)
	}

	for _, sel := range d.cfg.OptionTextSelectors {
		var text string
		s.Find(sel).EachWithBreak(func(_ int, t *goquery.Selection) bool {
			text = collapse(innerText(t.Get(0), false))
			return text == ""
		})
		if text != "" {
			return cleanArtifacts(text)
		}
	}

	return cleanArtifacts(stripEnumerator(collapse(innerText(el, false))))
}

// optionValue uses the control's native value, else a slug of the text,
// else an index placeholder.
func optionValue(control *html.Node, text string, index int) string {
	if control != nil {
		if v := attr(control, "value"); strings.TrimSpace(v) != "" {
			return v
		}
	}
	if v := slug(text); v != "" {
		return v
	}
	return fmt.Sprintf("option_%d", index)
}

func slug(text string) string {
	normalized := collapse(strings.ToLower(text))
	var b strings.Builder
	n := 0
	for _, r := range normalized {
		if n == maxValueLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		n++
	}
	return b.String()
}

// Package detect scans an HTML document for quiz questions.
//
// Detection is heuristic: ordered selector lists are tried against markup
// the tool does not control, containers and options are unioned across
// selectors, and text fields take the first non-empty match. A container
// that fails for any reason is skipped; the scan always returns whatever
// questions it could recover.
package detect

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/quiz"
)

var (
	// enumeratorPrefix matches "1. ", "12) " or "A. " at the start of a
	// string. A sentence that genuinely starts with a letter and a period
	// loses that prefix too.
	enumeratorPrefix = regexp.MustCompile(`^\s*(?:\d{1,3}|[A-Za-z])[.)]\s+`)

	// editorArtifacts match strings that code editor widgets leak into
	// the text content of the page.
	editorArtifacts = []*regexp.Regexp{
		regexp.MustCompile(`(?i)press alt\s*\+\s*f1 for accessibility options\.?`),
		regexp.MustCompile(`(?i)use (?:alt|option)\s*\+\s*f1 (?:or (?:alt|option)\s*\+\s*f1 )?for accessibility options\.?`),
		regexp.MustCompile(`(?i)the editor is not accessible at this time\.?`),
		regexp.MustCompile(`\.mtk\d+\s*\{[^}]*\}`),
		regexp.MustCompile(`\.monaco-[\w-]+(?:\s+[\w.-]+)*\s*\{[^}]*\}`),
		regexp.MustCompile(`\.cm-[\w-]+\s*\{[^}]*\}`),
	}

	errTooShort   = errors.New("question text too short")
	errFewOptions = errors.New("fewer than two options")
	errDuplicate  = errors.New("options already claimed by an earlier question")
)

const choiceControls = `input[type="radio"], input[type="checkbox"]`

// Detector extracts questions from documents. It is safe to call Detect
// repeatedly; every call performs a full scan.
type Detector struct {
	cfg Config
	log *logger.Logger
}

// New creates a Detector with the given selector configuration.
func New(cfg Config, log *logger.Logger) *Detector {
	if cfg.MinQuestionLength <= 0 {
		cfg.MinQuestionLength = 10
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Detector{cfg: cfg, log: log}
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// Detect returns the questions found in doc, in container discovery order.
// The result is empty, never nil-with-error, when nothing is recognizable.
func (d *Detector) Detect(doc *goquery.Document) []quiz.Question {
	containers := unionNodes(doc.Selection, d.cfg.ContainerSelectors)

	questions := make([]quiz.Question, 0, len(containers))
	claimed := make(map[*html.Node]bool)

	for i, c := range containers {
		q, err := d.extractSafe(c, claimed)
		if err != nil {
			switch {
			case errors.Is(err, errTooShort), errors.Is(err, errFewOptions), errors.Is(err, errDuplicate):
				d.log.Debug("detect: container rejected", "index", i, "reason", err.Error())
			default:
				d.log.Warn("detect: container skipped", "index", i, "error", err)
			}
			continue
		}
		for _, o := range q.Options {
			if o.Control != nil {
				claimed[o.Control] = true
			}
		}
		questions = append(questions, *q)
	}

	d.log.Debug("detect: scan complete", "containers", len(containers), "questions", len(questions))
	return questions
}

// extractSafe isolates a single container so a panic in one does not abort
// the scan.
func (d *Detector) extractSafe(container *html.Node, claimed map[*html.Node]bool) (q *quiz.Question, err error) {
	defer func() {
		if r := recover(); r != nil {
			q = nil
			err = fmt.Errorf("extract container: %v", r)
		}
	}()
	return d.extract(container, claimed)
}

func (d *Detector) extract(container *html.Node, claimed map[*html.Node]bool) (*quiz.Question, error) {
	c := goquery.NewDocumentFromNode(container).Selection

	candidates := d.optionCandidates(c)
	optionNodes := make(map[*html.Node]bool, len(candidates))
	for _, cand := range candidates {
		optionNodes[cand.element] = true
	}
	inOption := func(n *html.Node) bool { return hasAncestorIn(n, optionNodes, container) }

	text := d.questionText(c, inOption)
	code := d.questionCode(c, inOption)
	switch {
	case text != "" && code != "":
		text = text + "\n\n" + fence(code)
	case code != "":
		text = fence(code)
	}
	if len([]rune(text)) < d.cfg.MinQuestionLength {
		return nil, errTooShort
	}

	options := d.buildOptions(candidates)
	if len(options) < quiz.MinOptions {
		return nil, errFewOptions
	}
	for _, o := range options {
		if o.Control != nil && claimed[o.Control] {
			return nil, errDuplicate
		}
	}

	qType := quiz.Single
	for _, o := range options {
		if isCheckbox(o.Control) {
			qType = quiz.Multiple
			break
		}
	}

	return &quiz.Question{
		Text:      text,
		Options:   options,
		Type:      qType,
		Container: container,
	}, nil
}

// questionText returns the first non-empty prompt text outside option
// elements, with any enumerator prefix removed.
func (d *Detector) questionText(c *goquery.Selection, inOption func(*html.Node) bool) string {
	for _, sel := range d.cfg.QuestionTextSelectors {
		var text string
		c.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			n := s.Get(0)
			if inOption(n) {
				return true
			}
			if t := collapse(innerText(n, true)); t != "" {
				text = t
				return false
			}
			return true
		})
		if text != "" {
			return cleanArtifacts(stripEnumerator(text))
		}
	}
	return ""
}

// questionCode prefers the live editor input and falls back to rendered
// code lines, skipping line-number gutters.
func (d *Detector) questionCode(c *goquery.Selection, inOption func(*html.Node) bool) string {
	for _, sel := range d.cfg.EditorInputSelectors {
		var code string
		c.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if inOption(s.Get(0)) {
				return true
			}
			v, ok := s.Attr("value")
			if !ok || strings.TrimSpace(v) == "" {
				v = s.Text()
			}
			if strings.TrimSpace(v) != "" {
				code = strings.TrimRight(v, "\n")
				return false
			}
			return true
		})
		if code != "" {
			return cleanArtifacts(code)
		}
	}

	return d.codeLines(c, d.cfg.CodeLineSelectors, inOption)
}

func (d *Detector) codeLines(s *goquery.Selection, selectors []string, skip func(*html.Node) bool) string {
	gutter := strings.Join(d.cfg.GutterSelectors, ", ")
	inGutter := matcher(gutter)
	for _, sel := range selectors {
		var lines []string
		s.Find(sel).Each(func(_ int, line *goquery.Selection) {
			if skip != nil && skip(line.Get(0)) {
				return
			}
			if gutter != "" && line.Closest(gutter).Length() > 0 {
				return
			}
			lines = append(lines, codeText(line.Get(0), inGutter))
		})
		joined := strings.Join(lines, "\n")
		if strings.TrimSpace(joined) != "" {
			return cleanArtifacts(joined)
		}
	}
	return ""
}

func fence(code string) string {
	return "```\n" + code + "\n```"
}

func stripEnumerator(s string) string {
	return enumeratorPrefix.ReplaceAllString(s, "")
}

func cleanArtifacts(s string) string {
	for _, re := range editorArtifacts {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// unionNodes applies each selector in order and returns the matched nodes
// de-duplicated by identity, in first-seen order.
func unionNodes(root *goquery.Selection, selectors []string) []*html.Node {
	seen := make(map[*html.Node]bool)
	var out []*html.Node
	for _, sel := range selectors {
		root.Find(sel).Each(func(_ int, s *goquery.Selection) {
			n := s.Get(0)
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		})
	}
	return out
}

// hasAncestorIn reports whether n or one of its ancestors below stop is in set.
func hasAncestorIn(n *html.Node, set map[*html.Node]bool, stop *html.Node) bool {
	for p := n; p != nil && p != stop; p = p.Parent {
		if set[p] {
			return true
		}
	}
	return false
}

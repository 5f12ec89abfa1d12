// Package quiz holds the entities shared by the detector, the prompt builder,
// the response parser and the solver.
package quiz

import (
	"golang.org/x/net/html"
)

// MinOptions is the smallest option count a Question may carry.
const MinOptions = 2

// Type distinguishes single-answer from multiple-answer questions.
type Type string

const (
	// Single means exactly one option is correct (radio controls).
	Single Type = "single"

	// Multiple means any number of options may be correct (checkbox controls).
	Multiple Type = "multiple"
)

// ParseType maps a wire value to a Type, defaulting to Single.
func ParseType(s string) Type {
	if Type(s) == Multiple {
		return Multiple
	}
	return Single
}

// Option is one selectable choice of a Question.
type Option struct {
	// Text is the human-readable content. May contain a fenced code block.
	Text string

	// Value identifies the option. It is the control's native value when the
	// page provides one, otherwise synthesized from Text or the index.
	Value string

	// Control points at the input element in the parsed document. The
	// detector only reads through it. Nil for options supplied by a caller.
	Control *html.Node

	// Selector is a CSS path to Control, used to write the selection back
	// into a live page. Empty when Control is nil.
	Selector string
}

// Question is a detected (or caller-supplied) quiz question.
type Question struct {
	Text    string
	Options []Option
	Type    Type

	// Container is the element the question was extracted from.
	Container *html.Node
}

// Applicable reports whether every option is backed by a form control, so
// a selection can be written back into the page.
func (q Question) Applicable() bool {
	for _, o := range q.Options {
		if o.Control == nil {
			return false
		}
	}
	return len(q.Options) > 0
}

// OptionTexts returns the option texts in display order.
func (q Question) OptionTexts() []string {
	out := make([]string, len(q.Options))
	for i, o := range q.Options {
		out[i] = o.Text
	}
	return out
}

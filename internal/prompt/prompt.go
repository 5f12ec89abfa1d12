// Package prompt turns a detected question into a provider request.
package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizmate/internal/llm"
	"github.com/abhisek/quizmate/internal/quiz"
)

// MaxOptions is the number of options that can be lettered A..Z.
const MaxOptions = 26

// Generation defaults. Quiz answers want the most likely token, so sampling
// is kept nearly greedy.
const (
	Temperature          = 0.1
	TopK                 = 1
	TopP                 = 0.95
	MaxOutputTokens      = 1024
	MaxOutputTokensTerse = 256
	ExplanationMarker    = "Explanation:"
)

// MalformedQuestionError reports a question that cannot be turned into a
// prompt. Callers must not send anything to the provider.
type MalformedQuestionError struct {
	Reason string
}

func (e *MalformedQuestionError) Error() string {
	return "malformed question: " + e.Reason
}

// Letter returns the label for the option at index i ("A" for 0).
func Letter(i int) string {
	return string(rune('A' + i))
}

// Build renders q as a single-turn request. Option letters follow the order
// of q.Options; the response parser decodes letters back by position.
func Build(q quiz.Question, includeExplanation bool) (llm.Request, error) {
	text := strings.TrimSpace(q.Text)
	switch {
	case text == "":
		return llm.Request{}, &MalformedQuestionError{Reason: "question text is empty"}
	case len(q.Options) == 0:
		return llm.Request{}, &MalformedQuestionError{Reason: "question has no options"}
	case len(q.Options) > MaxOptions:
		return llm.Request{}, &MalformedQuestionError{
			Reason: fmt.Sprintf("%d options exceed the %d available letters", len(q.Options), MaxOptions),
		}
	}

	var b strings.Builder
	b.WriteString("Answer the following multiple-choice question.\n\n")
	fmt.Fprintf(&b, "Question:\n%s\n\nOptions:\n", text)
	for i, o := range q.Options {
		fmt.Fprintf(&b, "%s. %s\n", Letter(i), strings.TrimSpace(o.Text))
	}
	b.WriteString("\n")
	b.WriteString(formatInstruction(q.Type, len(q.Options)))
	b.WriteString("\n")
	b.WriteString(explanationInstruction(includeExplanation))

	maxTokens := MaxOutputTokensTerse
	if includeExplanation {
		maxTokens = MaxOutputTokens
	}

	return llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		Generation: llm.GenerationConfig{
			Temperature:     Temperature,
			TopK:            TopK,
			TopP:            TopP,
			MaxOutputTokens: maxTokens,
		},
	}, nil
}

func formatInstruction(t quiz.Type, n int) string {
	last := Letter(n - 1)
	if t == quiz.Multiple {
		return fmt.Sprintf("This question may have more than one correct option. "+
			"Begin your response with a comma-separated list of the letters (A-%s) of ALL correct options, for example \"A, C\".", last)
	}
	return fmt.Sprintf("Exactly one option is correct. "+
		"Begin your response with exactly one letter (A-%s) identifying the correct option.", last)
}

func explanationInstruction(include bool) string {
	if include {
		return "After the answer, add a new line starting with \"" + ExplanationMarker + " \" followed by a brief justification."
	}
	return "Respond with the answer only. Do not add any explanation or other text."
}

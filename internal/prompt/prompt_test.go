package prompt

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/quizmate/internal/quiz"
)

func sampleQuestion(t quiz.Type) quiz.Question {
	return quiz.Question{
		Text: "Which of these are prime numbers?",
		Type: t,
		Options: []quiz.Option{
			{Text: "2"},
			{Text: "4"},
			{Text: "  7 "},
		},
	}
}

func TestBuild_Combinations(t *testing.T) {
	tests := []struct {
		name        string
		typ         quiz.Type
		explain     bool
		mustHave    []string
		mustNotHave []string
		maxTokens   int
	}{
		{
			name:        "single without explanation",
			typ:         quiz.Single,
			mustHave:    []string{"exactly one letter (A-C)", "Do not add any explanation"},
			mustNotHave: []string{"comma-separated", ExplanationMarker},
			maxTokens:   MaxOutputTokensTerse,
		},
		{
			name:        "single with explanation",
			typ:         quiz.Single,
			explain:     true,
			mustHave:    []string{"exactly one letter (A-C)", `"Explanation: "`},
			mustNotHave: []string{"comma-separated", "Do not add"},
			maxTokens:   MaxOutputTokens,
		},
		{
			name:        "multiple without explanation",
			typ:         quiz.Multiple,
			mustHave:    []string{"comma-separated list", "ALL correct options", "Do not add any explanation"},
			mustNotHave: []string{"exactly one letter", ExplanationMarker},
			maxTokens:   MaxOutputTokensTerse,
		},
		{
			name:        "multiple with explanation",
			typ:         quiz.Multiple,
			explain:     true,
			mustHave:    []string{"comma-separated list", `"Explanation: "`},
			mustNotHave: []string{"exactly one letter", "Do not add"},
			maxTokens:   MaxOutputTokens,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Build(sampleQuestion(tt.typ), tt.explain)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(req.Messages) != 1 {
				t.Fatalf("expected one message, got %d", len(req.Messages))
			}
			msg := req.Messages[0].Content
			for _, s := range tt.mustHave {
				if !strings.Contains(msg, s) {
					t.Errorf("prompt missing %q:\n%s", s, msg)
				}
			}
			for _, s := range tt.mustNotHave {
				if strings.Contains(msg, s) {
					t.Errorf("prompt unexpectedly contains %q:\n%s", s, msg)
				}
			}
			if req.Generation.MaxOutputTokens != tt.maxTokens {
				t.Errorf("maxOutputTokens = %d, want %d", req.Generation.MaxOutputTokens, tt.maxTokens)
			}
		})
	}
}

func TestBuild_LettersFollowOptionOrder(t *testing.T) {
	req, err := Build(sampleQuestion(quiz.Single), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	msg := req.Messages[0].Content

	a := strings.Index(msg, "A. 2\n")
	b := strings.Index(msg, "B. 4\n")
	c := strings.Index(msg, "C. 7\n")
	if a < 0 || b < 0 || c < 0 || !(a < b && b < c) {
		t.Fatalf("options not lettered in order:\n%s", msg)
	}
	if !strings.Contains(msg, "Which of these are prime numbers?") {
		t.Fatalf("question text missing:\n%s", msg)
	}
}

func TestBuild_GenerationDefaults(t *testing.T) {
	req, err := Build(sampleQuestion(quiz.Single), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := req.Generation
	if g.Temperature != 0.1 || g.TopK != 1 || g.TopP != 0.95 || g.MaxOutputTokens != 1024 {
		t.Fatalf("generation = %+v", g)
	}
}

func TestBuild_Malformed(t *testing.T) {
	many := quiz.Question{Text: "Pick one of these", Type: quiz.Single}
	for i := range 27 {
		many.Options = append(many.Options, quiz.Option{Text: fmt.Sprintf("opt %d", i)})
	}

	tests := []struct {
		name string
		q    quiz.Question
	}{
		{"empty text", quiz.Question{Text: "   ", Options: []quiz.Option{{Text: "a"}, {Text: "b"}}}},
		{"no options", quiz.Question{Text: "What is 2 + 2?"}},
		{"too many options", many},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.q, false)
			var mq *MalformedQuestionError
			if !errors.As(err, &mq) {
				t.Fatalf("expected MalformedQuestionError, got %v", err)
			}
		})
	}
}

func TestLetter(t *testing.T) {
	if Letter(0) != "A" || Letter(25) != "Z" {
		t.Fatalf("Letter mapping wrong: %s %s", Letter(0), Letter(25))
	}
}

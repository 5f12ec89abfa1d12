package theme

import (
	"strings"
	"testing"
	"time"

	"github.com/abhisek/quizmate/internal/solver"
)

func TestStatusIcon(t *testing.T) {
	tests := map[solver.Status]string{
		solver.StatusSuccess: "✓",
		solver.StatusWarning: "!",
		solver.StatusError:   "✗",
	}
	for st, want := range tests {
		if got := StatusIcon(st); got != want {
			t.Errorf("StatusIcon(%s) = %q, want %q", st, got, want)
		}
	}
}

func TestOutcome(t *testing.T) {
	out := Outcome(2, "Which keyword declares a constant?\nextra line", &solver.Outcome{
		Status:      solver.StatusWarning,
		Message:     "Selected B",
		Explanation: "const is immutable",
		Warnings:    []string{"reply named 2 options"},
		FromCache:   true,
	})
	for _, want := range []string{"Q2", "Which keyword declares a constant?", "Selected B", "(cached)", "const is immutable", "reply named 2 options"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered outcome missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "extra line") {
		t.Errorf("only the first question line should render:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	rep := &solver.Report{
		Outcomes: []*solver.Outcome{
			{Status: solver.StatusSuccess},
			{Status: solver.StatusSuccess},
			{Status: solver.StatusError},
		},
		Skipped:  1,
		Duration: 2 * time.Second,
	}
	out := Summary(rep)
	for _, want := range []string{"2 solved", "0 with warnings", "1 failed", "1 already answered"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %s", want, out)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("abcdef", 4); got != "abc…" {
		t.Fatalf("firstLine = %q", got)
	}
	if got := firstLine("ab\ncd", 10); got != "ab" {
		t.Fatalf("firstLine = %q", got)
	}
}

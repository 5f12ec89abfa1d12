// Package theme holds the terminal styles used by command output.
package theme

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/quizmate/internal/solver"
)

// Color palette
var (
	Primary = lipgloss.Color("#8B5CF6") // Purple
	Success = lipgloss.Color("#22C55E") // Green
	Warning = lipgloss.Color("#F59E0B") // Amber
	Error   = lipgloss.Color("#F43F5E") // Rose
	Text    = lipgloss.Color("#F8FAFC") // White
	TextDim = lipgloss.Color("#94A3B8") // Slate
	Border  = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// States
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Caution = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// StatusStyle returns the style for an outcome status.
func StatusStyle(st solver.Status) lipgloss.Style {
	switch st {
	case solver.StatusSuccess:
		return Correct
	case solver.StatusWarning:
		return Caution
	default:
		return Incorrect
	}
}

// StatusIcon returns a one-character marker for st.
func StatusIcon(st solver.Status) string {
	switch st {
	case solver.StatusSuccess:
		return "✓"
	case solver.StatusWarning:
		return "!"
	default:
		return "✗"
	}
}

// Outcome renders one solved question as a bordered card.
func Outcome(n int, question string, o *solver.Outcome) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("Q%d", n)))
	b.WriteString(" ")
	b.WriteString(Body.Render(firstLine(question, 72)))
	b.WriteString("\n")

	st := StatusStyle(o.Status)
	b.WriteString(st.Render(StatusIcon(o.Status) + " " + o.Message))
	if o.FromCache {
		b.WriteString(" " + Hint.Render("(cached)"))
	}
	for _, w := range o.Warnings {
		b.WriteString("\n" + Caution.Render("! ") + Hint.Render(w))
	}
	if o.Explanation != "" {
		b.WriteString("\n" + Hint.Render(o.Explanation))
	}
	return Card.Render(b.String())
}

// Summary renders the per-status counts of a run.
func Summary(rep *solver.Report) string {
	parts := []string{
		Correct.Render(fmt.Sprintf("%d solved", rep.Count(solver.StatusSuccess))),
		Caution.Render(fmt.Sprintf("%d with warnings", rep.Count(solver.StatusWarning))),
		Incorrect.Render(fmt.Sprintf("%d failed", rep.Count(solver.StatusError))),
	}
	if rep.Skipped > 0 {
		parts = append(parts, Hint.Render(fmt.Sprintf("%d already answered", rep.Skipped)))
	}
	return strings.Join(parts, Hint.Render(" · ")) +
		Hint.Render(fmt.Sprintf("  (%s)", rep.Duration.Round(100*time.Millisecond)))
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

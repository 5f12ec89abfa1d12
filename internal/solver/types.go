package solver

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/abhisek/quizmate/internal/quiz"
)

var (
	// ErrScanActive is returned when a run starts while another is in flight.
	ErrScanActive = errors.New("a scan is already running")

	// ErrAutoSolveDisabled is returned for automatic runs when auto-solve is off.
	ErrAutoSolveDisabled = errors.New("auto-solve is disabled")

	// ErrNoQuestions means detection found nothing on the page.
	ErrNoQuestions = errors.New("no quiz questions found on the page")

	// ErrIncompleteReport means a wrong-answer report lacks an identifier.
	ErrIncompleteReport = errors.New("course, quiz, question and option are all required")
)

// Page is a document the solver can read and write selections back into.
type Page interface {
	URL() string
	Document(ctx context.Context) (*goquery.Document, error)

	// Select marks the given options as chosen, firing the events the host
	// page listens for.
	Select(ctx context.Context, q quiz.Question, indices []int) error
}

// Renderer receives every terminal question state.
type Renderer interface {
	Render(q quiz.Question, o *Outcome)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(q quiz.Question, o *Outcome)

func (f RendererFunc) Render(q quiz.Question, o *Outcome) { f(q, o) }

// Status classifies a terminal question state.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Outcome is the result of solving one question.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message"`

	Answers     []string `json:"answers,omitempty"`
	Indices     []int    `json:"indices,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Confidence  int      `json:"confidence,omitempty"`

	FromCache bool     `json:"fromCache,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Err       error    `json:"-"`
}

// Report summarizes a run.
type Report struct {
	RunID    string
	CourseID string
	QuizID   string
	Outcomes []*Outcome

	// Skipped counts questions a watch-triggered run had already answered.
	Skipped int

	Started  time.Time
	Duration time.Duration
}

// Count returns the number of outcomes with status st.
func (r *Report) Count(st Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == st {
			n++
		}
	}
	return n
}

// RunOptions control a single Run.
type RunOptions struct {
	// Manual runs bypass the auto-solve gate. They still respect the
	// single-scan slot.
	Manual bool
}

// SolveRequest is the inbound "solve this question" shape.
type SolveRequest struct {
	CourseID string    `json:"courseId,omitempty"`
	QuizID   string    `json:"quizId,omitempty"`
	Question string    `json:"question"`
	Options  []string  `json:"options"`
	Type     quiz.Type `json:"type"`
}

// WrongReport is the inbound "this option was wrong" shape. Either the raw
// texts or precomputed signatures may be given for the question and option.
type WrongReport struct {
	CourseID    string `json:"courseId"`
	QuizID      string `json:"quizId"`
	Question    string `json:"question,omitempty"`
	QuestionSig string `json:"questionSig,omitempty"`
	Option      string `json:"option,omitempty"`
	OptionSig   string `json:"optionSig,omitempty"`
}

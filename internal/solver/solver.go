// Package solver drives detection, caching, blocking, prompting and parsing
// for the questions on a page.
package solver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/abhisek/quizmate/internal/answer"
	"github.com/abhisek/quizmate/internal/blocker"
	"github.com/abhisek/quizmate/internal/cache"
	"github.com/abhisek/quizmate/internal/detect"
	"github.com/abhisek/quizmate/internal/fingerprint"
	"github.com/abhisek/quizmate/internal/llm"
	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/prompt"
	"github.com/abhisek/quizmate/internal/quiz"
)

// Config controls solver behavior.
type Config struct {
	// AutoSolve allows Watch-triggered runs. Manual runs ignore it.
	AutoSolve bool `yaml:"auto_solve"`

	// IncludeExplanation asks the provider for a justification.
	IncludeExplanation bool `yaml:"include_explanation"`

	// QuestionDelay separates consecutive provider calls within a run.
	QuestionDelay time.Duration `yaml:"question_delay"`
}

// DefaultConfig returns the default solver configuration.
func DefaultConfig() Config {
	return Config{
		AutoSolve:          true,
		IncludeExplanation: true,
		QuestionDelay:      1500 * time.Millisecond,
	}
}

// Solver answers quiz questions. At most one Run is active per Solver.
type Solver struct {
	cfg      Config
	detector *detect.Detector
	provider llm.Provider
	cache    *cache.Cache
	blocker  *blocker.Blocker
	log      *logger.Logger

	slot *semaphore.Weighted

	// solved remembers questions answered by watch-triggered runs, keyed by
	// page URL and cache hash, so a page's reaction to our own selection
	// does not start the same work again. Guarded by slot.
	solved map[string]bool

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Solver.
func New(cfg Config, d *detect.Detector, p llm.Provider, c *cache.Cache, b *blocker.Blocker, log *logger.Logger) *Solver {
	if log == nil {
		log = logger.Nop()
	}
	return &Solver{
		cfg:      cfg,
		detector: d,
		provider: p,
		cache:    c,
		blocker:  b,
		log:      log,
		slot:     semaphore.NewWeighted(1),
		solved:   make(map[string]bool),
		sleep:    sleepCtx,
	}
}

// Run detects every question on page and solves them one after another,
// writing each answer back through page.Select and reporting it to r.
//
// Batch-level failures are returned as errors: ErrScanActive,
// ErrAutoSolveDisabled, ErrNoQuestions and llm.ErrMissingKey. The latter
// comes with the partial report. Any other per-question failure is recorded
// as an error outcome and the run continues.
func (s *Solver) Run(ctx context.Context, page Page, r Renderer, opts RunOptions) (*Report, error) {
	if !s.slot.TryAcquire(1) {
		return nil, ErrScanActive
	}
	defer s.slot.Release(1)

	if !opts.Manual && !s.cfg.AutoSolve {
		return nil, ErrAutoSolveDisabled
	}

	runID := uuid.New().String()
	ctx = llm.WithRunID(llm.WithPurpose(ctx, "solve"), runID)
	log := s.log.With("run_id", runID)

	doc, err := page.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	questions := s.detector.Detect(doc)
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	pageURL := page.URL()
	courseID, quizID, ok := QuizIDs(pageURL)
	if !ok {
		log.Info("solver: no course/quiz id in url; wrong-answer blocking off", "url", pageURL)
	}

	rep := &Report{RunID: runID, CourseID: courseID, QuizID: quizID, Started: time.Now()}
	defer func() { rep.Duration = time.Since(rep.Started) }()

	log.Info("solver: run started", "questions", len(questions), "manual", opts.Manual)

	calls := 0
	for _, q := range questions {
		key := pageURL + "#" + fingerprint.CacheHash(q.Text, q.OptionTexts())
		if !opts.Manual && s.solved[key] {
			rep.Skipped++
			continue
		}

		if calls > 0 {
			if err := s.sleep(ctx, s.cfg.QuestionDelay); err != nil {
				return rep, err
			}
		}
		calls++

		o := s.solve(ctx, courseID, quizID, q)
		switch {
		case o.Status == StatusError:
		case !q.Applicable():
			o.Status = StatusWarning
			o.Warnings = append(o.Warnings, "options have no form controls; answer not applied")
			o.Message = fmt.Sprintf("Could not apply %s: the options have no form controls", letters(o.Indices))
			if !opts.Manual {
				s.solved[key] = true
			}
		default:
			if err := page.Select(ctx, q, o.Indices); err != nil {
				o.Status = StatusError
				o.Message = fmt.Sprintf("could not select the answer: %v", err)
				o.Err = err
			} else if !opts.Manual {
				s.solved[key] = true
			}
		}

		rep.Outcomes = append(rep.Outcomes, o)
		if r != nil {
			r.Render(q, o)
		}

		if errors.Is(o.Err, llm.ErrMissingKey) {
			log.Warn("solver: run aborted", "error", o.Err)
			return rep, o.Err
		}
	}

	log.Info("solver: run finished",
		"success", rep.Count(StatusSuccess),
		"warning", rep.Count(StatusWarning),
		"error", rep.Count(StatusError),
		"skipped", rep.Skipped)
	return rep, nil
}

// Solve answers a single caller-supplied question without touching any page.
func (s *Solver) Solve(ctx context.Context, req SolveRequest) *Outcome {
	q := quiz.Question{
		Text: req.Question,
		Type: quiz.ParseType(string(req.Type)),
	}
	for _, t := range req.Options {
		q.Options = append(q.Options, quiz.Option{Text: t})
	}
	if llm.RunIDFrom(ctx) == "" {
		ctx = llm.WithRunID(ctx, uuid.New().String())
	}
	return s.solve(llm.WithPurpose(ctx, "solve"), req.CourseID, req.QuizID, q)
}

// ReportWrong records that an option was marked wrong for a question.
func (s *Solver) ReportWrong(ctx context.Context, r WrongReport) error {
	questionSig := r.QuestionSig
	if questionSig == "" && strings.TrimSpace(r.Question) != "" {
		questionSig = fingerprint.Signature(r.Question)
	}
	optionSig := r.OptionSig
	if optionSig == "" && strings.TrimSpace(r.Option) != "" {
		optionSig = fingerprint.Signature(r.Option)
	}
	if r.CourseID == "" || r.QuizID == "" || questionSig == "" || optionSig == "" {
		return ErrIncompleteReport
	}
	return s.blocker.AddWrongAnswer(ctx, r.CourseID, r.QuizID, questionSig, optionSig)
}

func (s *Solver) solve(ctx context.Context, courseID, quizID string, q quiz.Question) *Outcome {
	log := s.log.With("run_id", llm.RunIDFrom(ctx))
	hash := fingerprint.CacheHash(q.Text, q.OptionTexts())

	var wrong []string
	if courseID != "" && quizID != "" {
		wrong = s.blocker.WrongAnswers(ctx, courseID, quizID, fingerprint.Signature(q.Text))
	}

	if e, ok := s.cache.Get(ctx, hash); ok {
		switch idx := indicesOf(e.Answers, q.Options); {
		case anyBlocked(e.Answers, wrong):
			log.Debug("solver: cached answer was reported wrong; solving again", "hash", hash)
		case len(idx) == 0:
			log.Debug("solver: cached answer matches no option; solving again", "hash", hash)
		default:
			return &Outcome{
				Status:      StatusSuccess,
				Message:     "Answered from cache: " + letters(idx),
				Answers:     e.Answers,
				Indices:     idx,
				Explanation: e.Explanation,
				Confidence:  e.Confidence,
				FromCache:   true,
			}
		}
	}

	candidates, positions, warnings := filterBlocked(q, wrong)

	req, err := prompt.Build(candidates, s.cfg.IncludeExplanation)
	if err != nil {
		return failed(err)
	}
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		log.Warn("solver: provider call failed", "hash", hash, "error", err)
		return failed(err)
	}
	res, err := answer.Parse(resp, candidates.Options, q.Type)
	if err != nil {
		log.Warn("solver: could not parse response", "hash", hash, "error", err, "response", resp.Text())
		return failed(err)
	}

	indices := make([]int, len(res.Indices))
	for i, idx := range res.Indices {
		indices[i] = positions[idx]
	}

	// Keyed by the unfiltered options so a later lookup without blocks hits.
	s.cache.Set(ctx, hash, cache.Entry{
		Answers:     res.Answers,
		Explanation: res.Explanation,
		Confidence:  res.Confidence,
	})

	o := &Outcome{
		Status:      StatusSuccess,
		Message:     "Selected " + letters(indices),
		Answers:     res.Answers,
		Indices:     indices,
		Explanation: res.Explanation,
		Confidence:  res.Confidence,
		Warnings:    append(warnings, res.Warnings...),
	}
	if len(o.Warnings) > 0 {
		o.Status = StatusWarning
		o.Message = o.Message + " (" + strings.Join(o.Warnings, "; ") + ")"
	}
	log.Debug("solver: question solved", "hash", hash, "strategy", res.Strategy, "answers", len(indices))
	return o
}

// filterBlocked drops options reported wrong. positions maps each candidate
// back to its index in q.Options. When every option is blocked the filter
// is ignored and a warning is returned.
func filterBlocked(q quiz.Question, wrong []string) (quiz.Question, []int, []string) {
	positions := make([]int, 0, len(q.Options))
	if len(wrong) == 0 {
		for i := range q.Options {
			positions = append(positions, i)
		}
		return q, positions, nil
	}

	kept := make([]quiz.Option, 0, len(q.Options))
	for i, o := range q.Options {
		if slices.Contains(wrong, fingerprint.Signature(o.Text)) {
			continue
		}
		kept = append(kept, o)
		positions = append(positions, i)
	}
	if len(kept) == 0 {
		positions = positions[:0]
		for i := range q.Options {
			positions = append(positions, i)
		}
		return q, positions, []string{"every option was reported wrong before; asked with all options"}
	}

	filtered := q
	filtered.Options = kept
	return filtered, positions, nil
}

func anyBlocked(answers, wrong []string) bool {
	for _, a := range answers {
		if slices.Contains(wrong, fingerprint.Signature(a)) {
			return true
		}
	}
	return false
}

// indicesOf locates cached answer texts among the current options. It
// returns nil unless every answer is found.
func indicesOf(answers []string, options []quiz.Option) []int {
	var out []int
	for _, a := range answers {
		want := fingerprint.Normalize(a)
		found := -1
		for i, o := range options {
			if fingerprint.Normalize(o.Text) == want && !slices.Contains(out, i) {
				found = i
				break
			}
		}
		if found < 0 {
			return nil
		}
		out = append(out, found)
	}
	return out
}

func letters(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = prompt.Letter(idx)
	}
	return strings.Join(parts, ", ")
}

func failed(err error) *Outcome {
	return &Outcome{Status: StatusError, Message: errorMessage(err), Err: err}
}

// errorMessage turns an error into the text shown next to a question.
func errorMessage(err error) string {
	var (
		mq     *prompt.MalformedQuestionError
		unauth *llm.ErrUnauthorized
		rl     *llm.ErrRateLimit
	)
	switch {
	case errors.Is(err, llm.ErrMissingKey):
		return "No API key configured. Run 'quizmate key set' or set QUIZMATE_GEMINI_API_KEY."
	case errors.As(err, &mq):
		return "Skipped: " + mq.Reason
	case errors.As(err, &unauth):
		return "The API key was rejected. Check it with 'quizmate key set'."
	case errors.As(err, &rl):
		return "Rate limited by the provider. Wait a minute and try again."
	case errors.Is(err, answer.ErrNoAnswerExtracted):
		return "The reply did not name any option."
	case errors.Is(err, answer.ErrEmptyResponse), errors.Is(err, llm.ErrEmptyResponse):
		return "The provider returned an empty reply."
	}
	return err.Error()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

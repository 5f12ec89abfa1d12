// Package blocker remembers options confirmed wrong per quiz question so they
// can be withheld from the model on the next attempt.
package blocker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/store"
)

// StorageKey is the local-tier key holding every quiz's records.
const StorageKey = "smartBlocker"

// records is quizKey -> question signature -> wrong option signatures.
type records map[string]map[string][]string

// QuizSummary describes the records held for one quiz.
type QuizSummary struct {
	CourseID     string
	QuizID       string
	Questions    int
	WrongAnswers int
}

// Blocker stores wrong-answer signatures. Like the cache it never fails the
// caller: storage errors are logged and treated as "nothing known".
type Blocker struct {
	kv  store.KV
	log *logger.Logger
}

// New creates a Blocker on top of kv.
func New(kv store.KV, log *logger.Logger) *Blocker {
	if log == nil {
		log = logger.Nop()
	}
	return &Blocker{kv: kv, log: log}
}

func quizKey(courseID, quizID string) string {
	return courseID + "_" + quizID
}

// AddWrongAnswer records optionSig as wrong for questionSig. Repeated calls
// with the same arguments store it once. Any empty argument is a no-op.
// Storage failures are logged and swallowed, except a full local tier,
// which is returned wrapping store.ErrQuotaExceeded.
func (b *Blocker) AddWrongAnswer(ctx context.Context, courseID, quizID, questionSig, optionSig string) error {
	if courseID == "" || quizID == "" || questionSig == "" || optionSig == "" {
		b.log.Error("blocker: missing argument",
			"course", courseID, "quiz", quizID, "question", questionSig, "option", optionSig)
		return nil
	}

	recs, err := b.load(ctx)
	if err != nil {
		b.log.Warn("blocker: read before write failed", "error", err)
		return nil
	}

	key := quizKey(courseID, quizID)
	if recs[key] == nil {
		recs[key] = make(map[string][]string)
	}
	if slices.Contains(recs[key][questionSig], optionSig) {
		return nil
	}
	recs[key][questionSig] = append(recs[key][questionSig], optionSig)

	err = store.SetJSON(ctx, b.kv, store.Local, StorageKey, recs)
	switch {
	case errors.Is(err, store.ErrQuotaExceeded):
		b.log.Error("blocker: storage quota exceeded; wrong answer not recorded",
			"quiz", key, "quizzes", len(recs))
		return fmt.Errorf("recording wrong answer for %s: %w", key, err)
	case err != nil:
		b.log.Warn("blocker: write failed", "quiz", key, "error", err)
		return nil
	}
	b.log.Info("blocker: recorded wrong answer", "quiz", key, "question", questionSig, "option", optionSig)
	return nil
}

// WrongAnswers returns the option signatures recorded for a question, or an
// empty slice when nothing is known.
func (b *Blocker) WrongAnswers(ctx context.Context, courseID, quizID, questionSig string) []string {
	recs, err := b.load(ctx)
	if err != nil {
		b.log.Warn("blocker: read failed", "error", err)
		return []string{}
	}
	wrong := recs[quizKey(courseID, quizID)][questionSig]
	if wrong == nil {
		return []string{}
	}
	return slices.Clone(wrong)
}

// Clear removes one quiz's records when both IDs are given, else everything.
func (b *Blocker) Clear(ctx context.Context, courseID, quizID string) error {
	if courseID == "" || quizID == "" {
		return b.kv.Remove(ctx, store.Local, StorageKey)
	}
	recs, err := b.load(ctx)
	if err != nil {
		return err
	}
	delete(recs, quizKey(courseID, quizID))
	return store.SetJSON(ctx, b.kv, store.Local, StorageKey, recs)
}

// Quizzes summarizes the stored records, sorted by quiz key.
func (b *Blocker) Quizzes(ctx context.Context) ([]QuizSummary, error) {
	recs, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(recs))
	for k := range recs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]QuizSummary, 0, len(keys))
	for _, k := range keys {
		course, quiz, _ := strings.Cut(k, "_")
		s := QuizSummary{CourseID: course, QuizID: quiz, Questions: len(recs[k])}
		for _, wrong := range recs[k] {
			s.WrongAnswers += len(wrong)
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *Blocker) load(ctx context.Context) (records, error) {
	recs := make(records)
	if _, err := store.GetJSON(ctx, b.kv, store.Local, StorageKey, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = make(records)
	}
	return recs, nil
}

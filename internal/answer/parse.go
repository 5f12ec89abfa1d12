// Package answer recovers the selected options from a provider's free-text
// reply.
package answer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/quizmate/internal/fingerprint"
	"github.com/abhisek/quizmate/internal/llm"
	"github.com/abhisek/quizmate/internal/quiz"
)

// FullConfidence is reported for every parsed answer. Providers expose no
// usable confidence signal.
const FullConfidence = 100

var (
	// ErrEmptyResponse means the reply carried no text at all.
	ErrEmptyResponse = errors.New("response contains no text")

	// ErrNoAnswerExtracted means no strategy produced a valid option.
	ErrNoAnswerExtracted = errors.New("no answer could be extracted from the response")
)

// Strategy names the extraction path that produced a Result.
type Strategy string

const (
	StrategyExact   Strategy = "exact"   // whole answer part is one letter
	StrategyBounded Strategy = "bounded" // first standalone letter
	StrategyScan    Strategy = "scan"    // every standalone letter
	StrategyText    Strategy = "text"    // option text found in the reply
)

// Result is the parsed answer bundle.
type Result struct {
	Answers     []string
	Indices     []int
	Explanation string
	Confidence  int
	Warnings    []string
	Strategy    Strategy
}

var (
	explanationMarker = regexp.MustCompile(`(?i)explanation:`)

	// A capital letter not glued to other letters or digits. The trailing
	// context is checked by hand since RE2 has no lookahead.
	standaloneLetter = regexp.MustCompile(`(?:^|[^A-Za-z0-9])([A-Z])`)
)

// Parse extracts the chosen options from resp. Letters map to options by
// position, so options must be in the order the prompt listed them.
func Parse(resp *llm.Response, options []quiz.Option, t quiz.Type) (*Result, error) {
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	answerPart, explanation := splitExplanation(text)
	res := &Result{Explanation: explanation, Confidence: FullConfidence}

	var letters []int
	if t == quiz.Multiple {
		letters = scanLetters(answerPart)
		res.Strategy = StrategyScan
	} else {
		letters, res.Strategy = singleLetter(answerPart, len(options))
	}

	seen := make(map[int]bool)
	for _, i := range letters {
		if i < 0 || i >= len(options) || seen[i] {
			continue
		}
		seen[i] = true
		res.Indices = append(res.Indices, i)
		res.Answers = append(res.Answers, options[i].Text)
	}

	if len(res.Indices) == 0 && len(options) > 0 {
		res.Strategy = StrategyText
		normalized := fingerprint.Normalize(text)
		for i, o := range options {
			needle := fingerprint.Normalize(o.Text)
			if needle == "" || seen[i] || !strings.Contains(normalized, needle) {
				continue
			}
			seen[i] = true
			res.Indices = append(res.Indices, i)
			res.Answers = append(res.Answers, o.Text)
			if t != quiz.Multiple {
				break
			}
		}
	}

	if t != quiz.Multiple && len(res.Indices) > 1 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("single-answer question produced %d answers; keeping the first", len(res.Indices)))
		res.Indices = res.Indices[:1]
		res.Answers = res.Answers[:1]
	}

	if len(res.Indices) == 0 {
		return nil, ErrNoAnswerExtracted
	}
	return res, nil
}

// splitExplanation cuts text at the first "Explanation:" marker.
func splitExplanation(text string) (answerPart, explanation string) {
	loc := explanationMarker.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[:loc[0]], strings.TrimSpace(text[loc[1]:])
}

// singleLetter tries the whole answer part as one letter, then the first
// in-range letter followed by a period, whitespace or the end of text.
func singleLetter(answerPart string, n int) ([]int, Strategy) {
	valid := func(c byte) bool { return c >= 'A' && int(c-'A') < n }

	trimmed := strings.TrimSpace(answerPart)
	if len(trimmed) == 1 && valid(trimmed[0]) {
		return []int{int(trimmed[0] - 'A')}, StrategyExact
	}

	for _, m := range standaloneLetter.FindAllStringSubmatchIndex(answerPart, -1) {
		c := answerPart[m[2]]
		if !valid(c) {
			continue
		}
		if end := m[3]; end < len(answerPart) {
			switch answerPart[end] {
			case '.', ' ', '\t', '\n', '\r':
			default:
				continue
			}
		}
		return []int{int(c - 'A')}, StrategyBounded
	}
	return nil, StrategyBounded
}

// scanLetters returns every standalone capital letter in order of
// appearance. Range and duplicate checks happen in Parse.
func scanLetters(answerPart string) []int {
	var out []int
	for _, m := range standaloneLetter.FindAllStringSubmatchIndex(answerPart, -1) {
		end := m[3]
		if end < len(answerPart) && isAlnum(answerPart[end]) {
			continue
		}
		out = append(out, int(answerPart[m[2]]-'A'))
	}
	return out
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

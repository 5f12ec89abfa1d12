package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmate/internal/llm"
	"github.com/abhisek/quizmate/internal/quiz"
)

func opts(texts ...string) []quiz.Option {
	out := make([]quiz.Option, len(texts))
	for i, t := range texts {
		out[i] = quiz.Option{Text: t}
	}
	return out
}

func reply(text string) *llm.Response {
	return llm.TextResponse("test", text)
}

func TestParse_Single(t *testing.T) {
	four := opts("alpha", "beta", "gamma", "delta")
	three := opts("red", "green", "blue")

	tests := []struct {
		name     string
		text     string
		options  []quiz.Option
		want     []string
		strategy Strategy
	}{
		{"bare letter", "B", four, []string{"beta"}, StrategyExact},
		{"bare letter with whitespace", "  D\n", four, []string{"delta"}, StrategyExact},
		{"letter in sentence", "The answer is C.", three, []string{"blue"}, StrategyBounded},
		{"letter list degrades to one", "A, C", four, []string{"gamma"}, StrategyBounded},
		{"out of range letter skipped", "I pick B", three, []string{"green"}, StrategyBounded},
		{"option text fallback", "The correct colour is Green", three, []string{"green"}, StrategyText},
		{"text fallback stops at first match", "either red or blue", three, []string{"red"}, StrategyText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(reply(tt.text), tt.options, quiz.Single)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Answers)
			assert.Equal(t, tt.strategy, res.Strategy)
			assert.Len(t, res.Indices, 1)
			assert.Equal(t, FullConfidence, res.Confidence)
		})
	}
}

func TestParse_Multiple(t *testing.T) {
	four := opts("alpha", "beta", "gamma", "delta")

	tests := []struct {
		name    string
		text    string
		want    []string
		indices []int
	}{
		{"comma list", "A, C", []string{"alpha", "gamma"}, []int{0, 2}},
		{"duplicates collapse", "A, A, C", []string{"alpha", "gamma"}, []int{0, 2}},
		{"order of appearance kept", "D and B", []string{"delta", "beta"}, []int{3, 1}},
		{"out of range dropped", "A, E", []string{"alpha"}, []int{0}},
		{"letters inside words ignored", "Options B. and Correct: C", []string{"beta", "gamma"}, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Parse(reply(tt.text), four, quiz.Multiple)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Answers)
			assert.Equal(t, tt.indices, res.Indices)
			assert.Equal(t, StrategyScan, res.Strategy)
		})
	}
}

// Every standalone in-range capital counts, including ones the reply
// negates. With nine or more options the pronoun "I" is read the same way.
func TestParse_MultipleTakesEveryStandaloneLetter(t *testing.T) {
	four := opts("alpha", "beta", "gamma", "delta")

	res, err := Parse(reply("Options A and C are correct; D is not."), four, quiz.Multiple)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, res.Indices)

	nine := opts("o1", "o2", "o3", "o4", "o5", "o6", "o7", "o8", "o9")
	res, err = Parse(reply("I think B"), nine, quiz.Multiple)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 1}, res.Indices)
}

func TestParse_MultipleTextFallbackCollectsAll(t *testing.T) {
	res, err := Parse(reply("both paris and rome are capitals"), opts("London", "Paris", "Rome"), quiz.Multiple)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Rome"}, res.Answers)
	assert.Equal(t, StrategyText, res.Strategy)
}

func TestParse_ExplanationSplit(t *testing.T) {
	four := opts("alpha", "beta", "gamma", "delta")

	res, err := Parse(reply("B\n\nExplanation: because X"), four, quiz.Single)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, res.Answers)
	assert.Equal(t, "because X", res.Explanation)

	res, err = Parse(reply("A, D\nexplanation:  both hold "), four, quiz.Multiple)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "delta"}, res.Answers)
	assert.Equal(t, "both hold", res.Explanation)

	res, err = Parse(reply("C"), four, quiz.Single)
	require.NoError(t, err)
	assert.Empty(t, res.Explanation)
}

func TestParse_LettersInExplanationIgnored(t *testing.T) {
	res, err := Parse(reply("B\nExplanation: A and C are wrong"), opts("a1", "b1", "c1"), quiz.Multiple)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Indices)
}

func TestParse_Errors(t *testing.T) {
	three := opts("red", "green", "blue")

	_, err := Parse(reply("   "), three, quiz.Single)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = Parse(&llm.Response{}, three, quiz.Single)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = Parse(nil, three, quiz.Single)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = Parse(reply("I don't know"), three, quiz.Single)
	assert.ErrorIs(t, err, ErrNoAnswerExtracted)

	_, err = Parse(reply("E"), opts("one", "two", "three", "four"), quiz.Single)
	assert.ErrorIs(t, err, ErrNoAnswerExtracted)
}

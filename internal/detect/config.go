package detect

// Config holds the ordered selector lists the detector tries. Each list is
// ordered most specific first; container and option lists are unioned,
// text lists are first-match-wins.
type Config struct {
	// ContainerSelectors locate question containers. Newer markup first,
	// then legacy and generic fallbacks.
	ContainerSelectors []string

	// QuestionTextSelectors locate the prompt inside a container.
	QuestionTextSelectors []string

	// EditorInputSelectors locate the hidden input backing a live code
	// editor. Its value is the most faithful copy of the code.
	EditorInputSelectors []string

	// CodeLineSelectors locate rendered code lines, one element per line.
	CodeLineSelectors []string

	// GutterSelectors mark line-number elements that must not be read as code.
	GutterSelectors []string

	// OptionSelectors locate option elements inside a container.
	OptionSelectors []string

	// OptionTextSelectors locate the label text inside an option element.
	OptionTextSelectors []string

	// OptionCodeSelectors locate code snippets inside an option element.
	OptionCodeSelectors []string

	// MinQuestionLength rejects containers whose question text is shorter.
	MinQuestionLength int

	// MinOptionCodeLength is the length an option's code snippet must
	// exceed before it is preferred over the option's text.
	MinOptionCodeLength int
}

// DefaultConfig returns the selector lists for the supported quiz markup
// generations.
func DefaultConfig() Config {
	return Config{
		ContainerSelectors: []string{
			`div[data-testid^="part-Submission_"]`,
			`.rc-FormPartsQuestion`,
			`div[role="group"][aria-labelledby]`,
			`.quiz-question`,
			`.question-container`,
		},
		QuestionTextSelectors: []string{
			`[id^="prompt-autoGradableResponseId"]`,
			`.rc-FormPartsQuestion__contentCell [data-testid="cml-viewer"]`,
			`[data-testid="cml-viewer"]`,
			`.rc-CML`,
			`legend`,
			`.question-text`,
			`.prompt`,
			`p`,
		},
		EditorInputSelectors: []string{
			`.monaco-editor textarea`,
			`.CodeMirror textarea`,
			`textarea.inputarea`,
		},
		CodeLineSelectors: []string{
			`.view-line`,
			`.cm-line`,
			`.CodeMirror-line`,
			`pre code`,
			`pre`,
		},
		GutterSelectors: []string{
			`.line-numbers`,
			`.line-number`,
			`.CodeMirror-linenumber`,
			`.CodeMirror-gutter-wrapper`,
			`.cm-gutterElement`,
			`.margin-view-overlays`,
		},
		OptionSelectors: []string{
			`.rc-Option`,
			`[data-testid="option"]`,
			`[role="radio"]`,
			`[role="checkbox"]`,
			`.answer-option`,
			`.option`,
		},
		OptionTextSelectors: []string{
			`.rc-Option__input-text`,
			`[data-testid="cml-viewer"]`,
			`.rc-CML`,
			`.option-text`,
		},
		OptionCodeSelectors: []string{
			`.view-line`,
			`.cm-line`,
			`.CodeMirror-line`,
			`pre code`,
			`pre`,
		},
		MinQuestionLength:   10,
		MinOptionCodeLength: 5,
	}
}

package llm

import (
	"context"
	"strings"
)

// Provider is the core abstraction for generative API interaction.
type Provider interface {
	// Generate sends a prompt and returns the provider's candidates.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the provider.
type Request struct {
	// System is the system prompt. Optional; the quiz prompt is carried
	// entirely in Messages.
	System string

	// Messages is the conversation. Quiz prompts are single-turn, so this
	// contains one user message.
	Messages []Message

	Generation GenerationConfig
}

// GenerationConfig carries the sampling parameters. Zero values are left
// for the provider to default.
type GenerationConfig struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the provider's output in the candidates/content/parts
// shape every provider is mapped into.
type Response struct {
	Candidates []Candidate `json:"candidates"`

	// Usage reports token consumption for this request.
	Usage Usage `json:"-"`

	// Model is the actual model that served the request.
	Model string `json:"-"`

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string `json:"-"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// Content is an ordered list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a text fragment. Non-text parts decode with an empty Text.
type Part struct {
	Text string `json:"text,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// TextResponse builds a single-candidate response.
func TextResponse(model, text string) *Response {
	return &Response{
		Candidates: []Candidate{{Content: Content{Role: "model", Parts: []Part{{Text: text}}}}},
		Model:      model,
		StopReason: "end",
	}
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// GenAIProvider implements Provider using the Google GenAI SDK against the
// Gemini API backend.
type GenAIProvider struct {
	client *genai.Client
	model  string
}

// NewGenAIProvider creates a new SDK-backed Gemini provider.
func NewGenAIProvider(ctx context.Context, cfg GeminiConfig) (*GenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("genai: %w", ErrMissingKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}

	return &GenAIProvider{
		client: client,
		model:  resolveModel(cfg.Model, geminiModels),
	}, nil
}

func (p *GenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := buildGenAIConfig(req)
	contents := buildGenAIContents(req.Messages)

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, mapGenAIError(err)
	}
	if len(result.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	resp := &Response{
		Model:      p.model,
		StopReason: mapGeminiFinishReason(string(result.Candidates[0].FinishReason)),
	}
	for _, c := range result.Candidates {
		var cand Candidate
		if c.Content != nil {
			cand.Content.Role = c.Content.Role
			for _, part := range c.Content.Parts {
				if part != nil && part.Text != "" && !part.Thought {
					cand.Content.Parts = append(cand.Content.Parts, Part{Text: part.Text})
				}
			}
		}
		cand.FinishReason = string(c.FinishReason)
		resp.Candidates = append(resp.Candidates, cand)
	}

	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			InputTokens:  int(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return resp, nil
}

func (p *GenAIProvider) ModelID() string {
	return p.model
}

func buildGenAIConfig(req Request) *genai.GenerateContentConfig {
	g := req.Generation
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.MaxOutputTokens),
	}
	if g.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(g.Temperature))
	}
	if g.TopK > 0 {
		config.TopK = genai.Ptr(float32(g.TopK))
	}
	if g.TopP > 0 {
		config.TopP = genai.Ptr(float32(g.TopP))
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	return config
}

func buildGenAIContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		}
	}
	return out
}

func mapGenAIError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr):
		apiErr = *apiErrPtr
	default:
		return &ErrNetwork{Err: err}
	}

	var retryAfter time.Duration
	if apiErr.Code == http.StatusTooManyRequests {
		for _, d := range apiErr.Details {
			if s, ok := d["retryDelay"].(string); ok {
				if v, perr := time.ParseDuration(s); perr == nil {
					retryAfter = v
					break
				}
			}
		}
	}
	if mapped := errorFromStatus(apiErr.Code, apiErr.Message, retryAfter, err); mapped != nil {
		return mapped
	}
	return &ErrServer{Status: apiErr.Code, Message: apiErr.Message, Err: err}
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash":      "gemini-2.0-flash",
	"gemini-flash-lite": "gemini-2.0-flash-lite",
	"gemini-pro":        "gemini-2.5-pro",
}

// GeminiProvider calls the generateContent REST endpoint directly, with the
// API key passed as a query parameter.
type GeminiProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewGeminiProvider creates a REST Gemini provider. A missing key is not an
// error here; Generate reports ErrMissingKey so callers see it per attempt.
func NewGeminiProvider(cfg GeminiConfig, timeout time.Duration) *GeminiProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultGeminiBaseURL
	}
	return &GeminiProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		apiKey:     cfg.APIKey,
		model:      resolveModel(cfg.Model, geminiModels),
	}
}

type geminiRequest struct {
	Contents          []Content               `json:"contents"`
	SystemInstruction *Content                `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopK            int      `json:"topK,omitempty"`
	TopP            float64  `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Response
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			RetryDelay string `json:"retryDelay"`
		} `json:"details"`
	} `json:"error"`
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if p.apiKey == "" {
		return nil, ErrMissingKey
	}

	body, err := json.Marshal(buildGeminiRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(p.model), url.QueryEscape(p.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ErrNetwork{Err: scrubKey(err, p.apiKey)}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &ErrNetwork{Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode >= 400 {
		return nil, mapGeminiHTTPError(httpResp, raw)
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &ErrServer{Status: httpResp.StatusCode, Message: "malformed response body", Err: err}
	}
	if len(out.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	resp := out.Response
	resp.Model = p.model
	if out.ModelVersion != "" {
		resp.Model = out.ModelVersion
	}
	resp.StopReason = mapGeminiFinishReason(resp.Candidates[0].FinishReason)
	if u := out.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  u.PromptTokenCount,
			OutputTokens: u.CandidatesTokenCount,
			TotalTokens:  u.TotalTokenCount,
		}
	}
	return &resp, nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func buildGeminiRequest(req Request) geminiRequest {
	out := geminiRequest{Contents: make([]Content, 0, len(req.Messages))}
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out.Contents = append(out.Contents, Content{Role: role, Parts: []Part{{Text: m.Content}}})
	}
	if req.System != "" {
		out.SystemInstruction = &Content{Parts: []Part{{Text: req.System}}}
	}

	g := req.Generation
	if g != (GenerationConfig{}) {
		temp := g.Temperature
		out.GenerationConfig = &geminiGenerationConfig{
			Temperature:     &temp,
			TopK:            g.TopK,
			TopP:            g.TopP,
			MaxOutputTokens: g.MaxOutputTokens,
		}
	}
	return out
}

func mapGeminiHTTPError(resp *http.Response, raw []byte) error {
	var body geminiErrorBody
	_ = json.Unmarshal(raw, &body)

	message := body.Error.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		if retryAfter == 0 {
			for _, d := range body.Error.Details {
				if d.RetryDelay == "" {
					continue
				}
				if v, err := time.ParseDuration(d.RetryDelay); err == nil && v > 0 {
					retryAfter = v
					break
				}
			}
		}
	}

	return errorFromStatus(resp.StatusCode, message, retryAfter, nil)
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func mapGeminiFinishReason(reason string) string {
	switch reason {
	case "MAX_TOKENS":
		return "max_tokens"
	case "", "STOP":
		return "end"
	default:
		return "error"
	}
}

// scrubKey removes the API key from transport errors, which embed the
// request URL.
func scrubKey(err error, key string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return errors.New(strings.ReplaceAll(uerr.Error(), url.QueryEscape(key), "REDACTED"))
	}
	return err
}

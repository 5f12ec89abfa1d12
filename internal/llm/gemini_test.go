package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiProvider(GeminiConfig{APIKey: "test-key", Model: "gemini-flash", BaseURL: srv.URL}, 5*time.Second)
}

func quizRequest() Request {
	return Request{
		Messages: []Message{{Role: RoleUser, Content: "Question: 2+2?\nA. 3\nB. 4"}},
		Generation: GenerationConfig{
			Temperature:     0.1,
			TopK:            1,
			TopP:            0.95,
			MaxOutputTokens: 256,
		},
	}
}

func TestGeminiProvider_Generate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "B"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 20, "candidatesTokenCount": 1, "totalTokenCount": 21},
			"modelVersion": "gemini-2.0-flash-001"
		}`)
	})

	resp, err := p.Generate(context.Background(), quizRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("key = %q", gotKey)
	}

	gen, ok := gotBody["generationConfig"].(map[string]any)
	if !ok {
		t.Fatalf("generationConfig missing: %v", gotBody)
	}
	if gen["temperature"] != 0.1 || gen["topK"] != float64(1) || gen["topP"] != 0.95 || gen["maxOutputTokens"] != float64(256) {
		t.Fatalf("generationConfig = %v", gen)
	}
	contents := gotBody["contents"].([]any)
	first := contents[0].(map[string]any)
	if first["role"] != "user" {
		t.Fatalf("role = %v", first["role"])
	}

	if resp.Text() != "B" {
		t.Fatalf("text = %q", resp.Text())
	}
	if resp.Model != "gemini-2.0-flash-001" {
		t.Fatalf("model = %q", resp.Model)
	}
	if resp.StopReason != "end" {
		t.Fatalf("stop reason = %q", resp.StopReason)
	}
	if resp.Usage.InputTokens != 20 || resp.Usage.OutputTokens != 1 || resp.Usage.TotalTokens != 21 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
}

func TestGeminiProvider_Unauthorized(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`)
	})

	_, err := p.Generate(context.Background(), quizRequest())
	var unauth *ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected ErrUnauthorized, got %T (%v)", err, err)
	}
	if !strings.Contains(unauth.Message, "API key not valid") {
		t.Fatalf("message = %q", unauth.Message)
	}
}

func TestGeminiProvider_RateLimitRetryDelay(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"code": 429, "message": "quota", "details": [
			{"@type": "type.googleapis.com/google.rpc.QuotaFailure"},
			{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "30s"}
		]}}`)
	})

	_, err := p.Generate(context.Background(), quizRequest())
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T (%v)", err, err)
	}
	if rl.RetryAfter != 30*time.Second {
		t.Fatalf("retry after = %v", rl.RetryAfter)
	}
}

func TestGeminiProvider_RateLimitHeaderWins(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"code": 429, "details": [{"retryDelay": "30s"}]}}`)
	})

	_, err := p.Generate(context.Background(), quizRequest())
	var rl *ErrRateLimit
	if !errors.As(err, &rl) || rl.RetryAfter != 12*time.Second {
		t.Fatalf("expected 12s hint, got %v", err)
	}
}

func TestGeminiProvider_ServerError(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := p.Generate(context.Background(), quizRequest())
	var srv *ErrServer
	if !errors.As(err, &srv) || srv.Status != 500 {
		t.Fatalf("expected ErrServer 500, got %T (%v)", err, err)
	}
	if !IsRetryable(err) {
		t.Fatal("server error must be retryable")
	}
}

func TestGeminiProvider_BadRequest(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"code": 400, "message": "bad field"}}`)
	})

	_, err := p.Generate(context.Background(), quizRequest())
	var inv *ErrInvalidRequest
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidRequest, got %T", err)
	}
}

func TestGeminiProvider_NoCandidates(t *testing.T) {
	p := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates": [], "promptFeedback": {"blockReason": "SAFETY"}}`)
	})

	_, err := p.Generate(context.Background(), quizRequest())
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeminiProvider_MissingKeyMakesNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := NewGeminiProvider(GeminiConfig{BaseURL: srv.URL}, time.Second)
	_, err := p.Generate(context.Background(), quizRequest())
	if !errors.Is(err, ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if called {
		t.Fatal("no request should be sent without a key")
	}
}

func TestGeminiProvider_NetworkErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewGeminiProvider(GeminiConfig{APIKey: "secret-key", BaseURL: url}, time.Second)
	_, err := p.Generate(context.Background(), quizRequest())
	var nw *ErrNetwork
	if !errors.As(err, &nw) {
		t.Fatalf("expected ErrNetwork, got %T (%v)", err, err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("error leaks key: %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("5"); got != 5*time.Second {
		t.Fatalf("seconds: %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Fatalf("empty: %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Fatalf("garbage: %v", got)
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > 91*time.Second {
		t.Fatalf("http date: %v", got)
	}
}

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gemini-2.0-flash-001"); c == nil || c.InputPerMTok != 0.1 {
		t.Fatalf("versioned gemini id not matched: %v", c)
	}
	if c := LookupCost("google/gemini-2.0-flash-001"); c == nil {
		t.Fatal("openrouter id not matched")
	}
	if c := LookupCost("gpt-4o-mini"); c == nil || c.Cost(1_000_000, 0) != 0.15 {
		t.Fatalf("gpt-4o-mini: %v", c)
	}
	if LookupCost("unknown-model") != nil {
		t.Fatal("unknown model must be nil")
	}
}

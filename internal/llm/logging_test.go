package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/quizmate/internal/store"
)

func openEventRepo(t *testing.T) store.EventRepo {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s.EventRepo()
}

func TestLogging_RecordsEveryAttempt(t *testing.T) {
	repo := openEventRepo(t)
	mock := NewMockProvider(
		MockResponse{Err: &ErrServer{Status: 503, Message: "overloaded"}},
		MockResponse{Text: "A", Usage: Usage{InputTokens: 12, OutputTokens: 1}},
	)

	p, _ := newTestRetry(WithLogging(mock, "mock", repo, nil), retryConfig(), 0)

	ctx := WithRunID(WithPurpose(context.Background(), "solve"), "run-42")
	req := quizRequest()
	req.System = "be brief"
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{RunID: "run-42"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	// Newest first.
	ok, failed := events[0], events[1]
	if !ok.Success || ok.ResponseBody != "A" || ok.InputTokens != 12 || ok.Purpose != "solve" {
		t.Fatalf("success event = %+v", ok.LLMRequestEventData)
	}
	if failed.Success || !strings.Contains(failed.ErrorMessage, "503") {
		t.Fatalf("failure event = %+v", failed.LLMRequestEventData)
	}
	if failed.Provider != "mock" || failed.Model != "mock" {
		t.Fatalf("provider/model = %q/%q", failed.Provider, failed.Model)
	}
	if !strings.Contains(ok.RequestBody, "[system]\nbe brief") || !strings.Contains(ok.RequestBody, "topK=1") {
		t.Fatalf("request body = %q", ok.RequestBody)
	}
}

func TestLogging_NilRepo(t *testing.T) {
	p := WithLogging(NewMockProvider(MockResponse{Text: "B"}), "mock", nil, nil)
	resp, err := p.Generate(context.Background(), Request{})
	if err != nil || resp.Text() != "B" {
		t.Fatalf("resp=%v err=%v", resp, err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("model = %q", p.ModelID())
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock", Retry: retryConfig()}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Fatalf("expected retry decorator outermost, got %T", p)
	}
	if _, err := NewProvider(context.Background(), Config{Provider: "bogus"}, nil, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

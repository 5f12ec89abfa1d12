package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "", "gemini":
		base = NewGeminiProvider(cfg.Gemini, cfg.Timeout)
	case "genai":
		base, err = NewGenAIProvider(ctx, cfg.Gemini)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	name := cfg.Provider
	if name == "" {
		name = "gemini"
	}

	// Wrap with middleware: caller → retry → logging → base
	logged := WithLogging(base, name, eventRepo, log)
	retried := WithRetry(logged, cfg.Retry)

	return retried, nil
}

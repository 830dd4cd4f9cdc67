package llm

import (
	"context"
	"fmt"
)

// NewClient creates a Client from configuration, wrapped with retry
// middleware. Call-level cost/quota accounting is the judge package's
// responsibility, not this package's — a Client here is a pure
// request/response boundary with no storage dependency.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var base Client
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicClient(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIClient(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiClient(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterClient(cfg.OpenRouter)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(base, cfg.Retry), nil
}

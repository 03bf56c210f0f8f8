// Package llm holds the extraction backends. Each one implements
// pipeline.Extractor and reports call failures as
// pipeline.ErrBackendUnavailable.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/chat-ledger/internal/config"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

// DefaultTimeout bounds a single model call when none is configured.
const DefaultTimeout = 30 * time.Second

// New builds the extractor selected by cfg.LLMBackend.
func New(ctx context.Context, cfg *config.Config) (pipeline.Extractor, error) {
	switch cfg.LLMBackend {
	case config.BackendGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model(), cfg.LLMTimeout)
	case config.BackendOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model(), cfg.LLMTimeout), nil
	case config.BackendOllama:
		return NewOllama(cfg.OllamaURL, cfg.Model(), cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("llm: unknown backend %q", cfg.LLMBackend)
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// callError tags err as a backend failure and prefers the context error when
// the call was cut short by the deadline.
func callError(ctx context.Context, backend string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return pipeline.NewBackendError(backend, fmt.Errorf("%w: %w", ctxErr, err))
	}
	return pipeline.NewBackendError(backend, err)
}

package ai

import (
	"context"

	"tradecraft/internal/adapters/config"
	"tradecraft/pkg/errors"
)

// NewOracle builds the configured oracle provider.
func NewOracle(ctx context.Context, cfg config.OracleConfig) (Oracle, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiOracle(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.Temperature, cfg.MaxTokens, cfg.Timeout, cfg.RateLimit)
	case ProviderOpenAI:
		return NewOpenAIOracle(cfg.OpenAIKey, cfg.OpenAIModel, cfg.Temperature, cfg.MaxTokens, cfg.Timeout, cfg.RateLimit)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown oracle provider %q", cfg.Provider)
	}
}

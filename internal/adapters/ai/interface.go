package ai

import (
	"context"
)

// Oracle is the LLM boundary: prompt in, raw text out. Implementations
// may be slow and may return malformed output; callers own the timeout
// and the defensive parsing.
type Oracle interface {
	Name() string
	Invoke(ctx context.Context, req InvokeRequest) (string, error)
}

// InvokeRequest is a single prompt exchange. The response is always
// requested as JSON; the oracle is never trusted to honor that.
type InvokeRequest struct {
	System string
	Prompt string
}

// Provider names accepted by the factory
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

// GeminiOracle implements the Oracle interface on the Gemini API.
type GeminiOracle struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	limiter     *rate.Limiter
	log         *logger.Logger
}

// NewGeminiOracle creates a Gemini-backed oracle.
func NewGeminiOracle(ctx context.Context, apiKey, model string, temperature float64, maxTokens int, timeout time.Duration, requestsPerMin int) (*GeminiOracle, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	if requestsPerMin <= 0 {
		requestsPerMin = 30
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	return &GeminiOracle{
		client:      client,
		model:       model,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
		timeout:     timeout,
		limiter:     rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), 1),
		log:         logger.Get().With("component", "gemini_oracle", "model", model),
	}, nil
}

// Name returns the provider name
func (o *GeminiOracle) Name() string { return ProviderGemini }

// Invoke sends the prompt and returns the raw response text.
func (o *GeminiOracle) Invoke(ctx context.Context, req InvokeRequest) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "oracle rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(o.temperature),
		ResponseMIMEType: "application/json",
	}
	if o.maxTokens > 0 {
		cfg.MaxOutputTokens = o.maxTokens
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	started := time.Now()
	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", errors.Wrap(errors.ErrOracleUnavailable, err.Error())
	}

	text := resp.Text()
	o.log.Debugw("Oracle responded",
		"latency", time.Since(started),
		"response_chars", len(text),
	)

	if text == "" {
		return "", errors.Wrap(errors.ErrOracleMalformed, "empty response")
	}

	return text, nil
}

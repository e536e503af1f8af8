package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"golang.org/x/time/rate"

	"tradecraft/pkg/errors"
	"tradecraft/pkg/logger"
)

// OpenAIOracle implements the Oracle interface using the official OpenAI SDK.
type OpenAIOracle struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	timeout     time.Duration
	limiter     *rate.Limiter
	log         *logger.Logger
}

// NewOpenAIOracle creates an OpenAI-backed oracle.
func NewOpenAIOracle(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration, requestsPerMin int) (*OpenAIOracle, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}
	if timeout == 0 {
		timeout = 90 * time.Second
	}
	if requestsPerMin <= 0 {
		requestsPerMin = 30
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &OpenAIOracle{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   int64(maxTokens),
		timeout:     timeout,
		limiter:     rate.NewLimiter(rate.Limit(float64(requestsPerMin)/60.0), 1),
		log:         logger.Get().With("component", "openai_oracle", "model", model),
	}, nil
}

// Name returns the provider name
func (o *OpenAIOracle) Name() string { return ProviderOpenAI }

// Invoke sends the prompt and returns the raw response text.
func (o *OpenAIOracle) Invoke(ctx context.Context, req InvokeRequest) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "oracle rate limiter")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(o.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if o.maxTokens > 0 {
		params.MaxTokens = openai.Int(o.maxTokens)
	}

	started := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrap(errors.ErrOracleUnavailable, err.Error())
	}

	if len(resp.Choices) == 0 {
		return "", errors.Wrap(errors.ErrOracleMalformed, "no choices in response")
	}

	text := resp.Choices[0].Message.Content
	o.log.Debugw("Oracle responded",
		"latency", time.Since(started),
		"response_chars", len(text),
		"tokens", resp.Usage.TotalTokens,
	)

	if text == "" {
		return "", errors.Wrap(errors.ErrOracleMalformed, "empty response")
	}

	return text, nil
}

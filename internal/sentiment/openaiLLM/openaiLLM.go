package openaiLLM

import (
	"context"
	"errors"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/customHttpClient"
	"github.com/akolanti/MLServe/internal/sentiment"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var ErrNoChoices = errors.New("openai returned no choices")

const finishContentFilter = "content_filter"

type client struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

// NewAnalyzer targets api.openai.com, or any compatible server when baseURL is set
func NewAnalyzer(apiKey string, model string, baseURL string) sentiment.Analyzer {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(customHttpClient.GetClient()),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &client{
		api:    openai.NewClient(opts...),
		model:  model,
		logger: logger_i.NewLogger("OpenAISentiment"),
	}
}

func (c *client) Name() string {
	return "openai"
}

func completionParams(model string, prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model:               model,
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature:         openai.Float(config.SentimentTemperature),
		MaxCompletionTokens: openai.Int(config.SentimentMaxOutputTokens),
	}
}

func (c *client) Analyze(ctx context.Context, prompt string) (sentiment.Result, error) {
	resp, err := c.api.Chat.Completions.New(ctx, completionParams(c.model, prompt))
	if err != nil {
		c.logger.WithTrace(ctx).Error("OpenAI completion failed", "error", err)
		return sentiment.Result{}, err
	}
	return toResult(resp)
}

func toResult(resp *openai.ChatCompletion) (sentiment.Result, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return sentiment.Result{}, ErrNoChoices
	}
	choice := resp.Choices[0]
	blocked := choice.FinishReason == finishContentFilter
	return sentiment.Result{
		GeneratedText: choice.Message.Content,
		Blocked:       blocked,
		SafetyAttributes: map[string]any{
			"blocked":       blocked,
			"finish_reason": choice.FinishReason,
		},
	}, nil
}

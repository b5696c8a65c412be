package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/customHttpClient"
	"github.com/akolanti/MLServe/internal/sentiment"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"google.golang.org/genai"
)

var ErrNoCandidates = errors.New("gemini returned no candidates")

type client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
}

func NewAnalyzer(ctx context.Context, apiKey string, model string) (sentiment.Analyzer, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	log := logger_i.NewLogger("GeminiSentiment")
	log.Info("Gemini client created", "model", model)
	return &client{genAi: c, model: model, logger: log}, nil
}

func (c *client) Name() string {
	return "gemini"
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](config.SentimentTemperature),
		MaxOutputTokens: config.SentimentMaxOutputTokens,
	}
}

func (c *client) Analyze(ctx context.Context, prompt string) (sentiment.Result, error) {
	log := c.logger.WithTrace(ctx)
	resp, err := c.genAi.Models.GenerateContent(ctx, c.model, genai.Text(prompt), generationConfig())
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return sentiment.Result{}, err
	}
	return toResult(resp)
}

func toResult(resp *genai.GenerateContentResponse) (sentiment.Result, error) {
	result := sentiment.Result{SafetyAttributes: map[string]any{}}
	if resp == nil {
		return result, ErrNoCandidates
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		result.Blocked = true
		result.SafetyAttributes["blocked"] = true
		result.SafetyAttributes["block_reason"] = string(resp.PromptFeedback.BlockReason)
		return result, nil
	}
	if len(resp.Candidates) == 0 {
		return result, ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	for _, rating := range candidate.SafetyRatings {
		if rating == nil {
			continue
		}
		result.SafetyAttributes[string(rating.Category)] = string(rating.Probability)
		if rating.Blocked {
			result.Blocked = true
		}
	}
	if candidate.FinishReason == genai.FinishReasonSafety {
		result.Blocked = true
	}
	result.SafetyAttributes["blocked"] = result.Blocked
	result.GeneratedText = resp.Text()
	return result, nil
}

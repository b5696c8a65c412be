package googleEmbedding

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/customHttpClient"
	"github.com/akolanti/MLServe/internal/words/embedding"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

var dimension = config.EmbeddingOutputDimensionality

// TaskType used for single words, the vectors are compared to each other only
const taskType = "SEMANTIC_SIMILARITY"

type client struct {
	genAi  *genai.Client
	model  string
	logger *logger_i.Logger
}

// NewEmbedder creates the Gemini embedding client. It is released when ctx is done.
func NewEmbedder(ctx context.Context, apiKey string, modelName string) (embedding.Embedder, error) {
	logger := logger_i.NewLogger("google_embedding")
	if apiKey == "" {
		return nil, errors.New("gemini api key is not set")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.GetClient(),
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return nil, err
	}
	logger.Info("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName, logger: logger}, nil
}

func (c *client) GetEmbedding(ctx context.Context, word string) ([]float32, error) {
	log := c.logger.WithTrace(ctx)
	log.Debug("GetEmbedding", "word", word)

	result, err := c.doCall(ctx, genai.Text(word))
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, err
	}
	if len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, embedding.ErrUnknownWord
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, words []string, isLargeDataSet bool) ([][]float32, error) {
	log := c.logger.WithTrace(ctx).With("words", len(words))
	if len(words) == 0 {
		return [][]float32{}, nil
	}

	if !isLargeDataSet {
		res, err := c.doCall(ctx, getContent(words))
		if err != nil && doRetry(err, log) {
			log.Debug("Retrying", "delay", config.EmbeddingRetryDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(config.EmbeddingRetryDelay):
			}
			res, err = c.doCall(ctx, getContent(words))
		}
		if err != nil {
			log.Error("Error getting Embeddings from Google", "error", err)
			return nil, err
		}
		return alignResults(len(words), res.Embeddings), nil
	}

	source := genai.EmbeddingsBatchJobSource{InlinedRequests: getInlinedBatchRequests(words)}
	displayName := uuid.NewString()
	log = log.With("batchJob", displayName)

	created, err := c.genAi.Batches.CreateEmbeddings(ctx, &c.model, &source, &genai.CreateEmbeddingsBatchJobConfig{DisplayName: displayName})
	if err != nil {
		log.Error("Error creating batch embedding job", "error", err)
		return nil, err
	}

	answer, err := c.pollForAnswer(ctx, created.Name, log)
	if err != nil {
		return nil, err
	}
	return downloadAnswerFromClient(answer, len(words), log), nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: taskType})
}

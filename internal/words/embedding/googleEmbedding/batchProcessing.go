package googleEmbedding

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errBatchFailed = errors.New("batch embedding job did not succeed")

// pollInterval is a var so tests do not wait for the real interval
var pollInterval = config.EmbeddingBatchPollInterval

func getContent(words []string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(words))
	for _, w := range words {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: w}},
		})
	}
	return contents
}

func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		log.Warn("Rate limit hit", "error", err)
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		log.Warn("Rate limit hit", "error", err)
		return true
	}
	return false
}

func getInlinedBatchRequests(words []string) *genai.EmbedContentBatch {
	return &genai.EmbedContentBatch{
		Config:   &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: taskType},
		Contents: getContent(words),
	}
}

// alignResults pads or trims the vendor response to one slot per input word
func alignResults(n int, embeddings []*genai.ContentEmbedding) [][]float32 {
	out := make([][]float32, n)
	for i := 0; i < n && i < len(embeddings); i++ {
		if embeddings[i] != nil {
			out[i] = embeddings[i].Values
		}
	}
	return out
}

func (c *client) pollForAnswer(ctx context.Context, batchJobName string, log *logger_i.Logger) (*genai.BatchJob, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	log.Debug("pollForAnswer")
	for {
		select {
		case <-ctx.Done():
			log.Error("pollForAnswer cancelled", "error", ctx.Err())
			return nil, ctx.Err()

		case <-ticker.C:
			bJob, err := c.genAi.Batches.Get(ctx, batchJobName, nil)
			if err != nil {
				log.Error("Error getting batch job", "error", err)
				continue
			}

			switch bJob.State {
			case genai.JobStateSucceeded:
				log.Debug("batch job succeeded")
				return bJob, nil
			case genai.JobStateFailed, genai.JobStateCancelled, genai.JobStateExpired:
				log.Error("batch job ended", "state", bJob.State)
				return nil, errBatchFailed
			}
		}
	}
}

func downloadAnswerFromClient(answer *genai.BatchJob, n int, log *logger_i.Logger) [][]float32 {
	out := make([][]float32, n)
	if answer == nil || answer.Dest == nil {
		return out
	}
	for i, r := range answer.Dest.InlinedEmbedContentResponses {
		if i >= n {
			break
		}
		if r == nil || r.Error != nil || r.Response == nil || r.Response.Embedding == nil {
			log.Warn("Failed result in batch embedding", "index", i)
			continue
		}
		out[i] = r.Response.Embedding.Values
	}
	return out
}

package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/metrics"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

// Cache is a best effort store of already classified reviews
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, label string)
}

type Service struct {
	analyzer Analyzer
	cache    Cache
	logger   *logger_i.Logger
}

func NewService(analyzer Analyzer, cache Cache) *Service {
	return &Service{
		analyzer: analyzer,
		cache:    cache,
		logger:   logger_i.NewLogger("Sentiment"),
	}
}

func (s *Service) Classify(ctx context.Context, review string) (string, error) {
	log := s.logger.WithTrace(ctx).With("backend", s.analyzer.Name())
	if strings.TrimSpace(review) == "" {
		return "", ErrEmptyReview
	}
	log.Info("Retrieved review", "length", len(review))

	key := cacheKey(s.analyzer.Name(), review)
	if s.cache != nil {
		if label, ok := s.cache.Get(ctx, key); ok {
			log.Debug("Sentiment cache hit")
			return label, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, config.SentimentTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.analyzer.Analyze(ctx, BuildPrompt(review))
	metrics.CaptureExecutionMetrics("sentiment_"+s.analyzer.Name(), time.Since(start))
	if err != nil {
		log.Error("Sentiment analysis failed", "error", err)
		return "", fmt.Errorf("sentiment analysis: %w", err)
	}

	label := Label(result)
	log.Info("Classified sentiment", "result", label, "blocked", result.Blocked, "safety", result.SafetyAttributes)
	metrics.CountPrediction("sentiment_"+s.analyzer.Name(), label)

	if s.cache != nil {
		s.cache.Set(ctx, key, label)
	}
	return label, nil
}

func cacheKey(backend, review string) string {
	sum := sha256.Sum256([]byte(review))
	return "sentiment:" + backend + ":" + hex.EncodeToString(sum[:])
}

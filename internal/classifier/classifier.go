package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/MLServe/internal/metrics"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var (
	ErrFeatureCount = errors.New("every instance must have exactly 4 features")
	ErrUnknownClass = errors.New("model predicted a class outside the label table")
)

// FeatureCount is the width of an iris measurement row
const FeatureCount = 4

type Classifier interface {
	Predict(ctx context.Context, instances [][]float64) ([]int, error)
	Classes() []string
	Close() error
}

// IrisSample is a single flower measurement in centimetres
type IrisSample struct {
	SepalLength float64 `json:"sepal_length" example:"5.1"`
	SepalWidth  float64 `json:"sepal_width" example:"3.5"`
	PetalLength float64 `json:"petal_length" example:"1.4"`
	PetalWidth  float64 `json:"petal_width" example:"0.2"`
}

// DefaultIrisSample is decoded into, so omitted fields keep these values
func DefaultIrisSample() IrisSample {
	return IrisSample{SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2}
}

func (s IrisSample) Features() []float64 {
	return []float64{s.SepalLength, s.SepalWidth, s.PetalLength, s.PetalWidth}
}

func Argmax[T float32 | float64](values []T) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

type Service struct {
	model  Classifier
	name   string
	logger *logger_i.Logger
}

func NewService(model Classifier, name string) *Service {
	return &Service{
		model:  model,
		name:   name,
		logger: logger_i.NewLogger("Classifier"),
	}
}

// PredictLabels runs the model over every instance and maps class indices to names
func (s *Service) PredictLabels(ctx context.Context, instances [][]float64) ([]string, error) {
	log := s.logger.WithTrace(ctx)
	for i, instance := range instances {
		if len(instance) != FeatureCount {
			return nil, fmt.Errorf("instance %d has %d features: %w", i, len(instance), ErrFeatureCount)
		}
	}
	if len(instances) == 0 {
		return []string{}, nil
	}

	start := time.Now()
	indices, err := s.model.Predict(ctx, instances)
	metrics.CaptureExecutionMetrics("model_"+s.name, time.Since(start))
	if err != nil {
		log.Error("Model prediction failed", "model", s.name, "error", err)
		return nil, err
	}

	classes := s.model.Classes()
	labels := make([]string, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(classes) {
			return nil, fmt.Errorf("index %d: %w", idx, ErrUnknownClass)
		}
		labels[i] = classes[idx]
		metrics.CountPrediction(s.name, labels[i])
	}
	log.Debug("Predicted", "model", s.name, "count", len(labels))
	return labels, nil
}

func (s *Service) Close() error {
	return s.model.Close()
}

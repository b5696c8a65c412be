package localModel

import (
	"context"

	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/internal/classifier/onnxModel"
	"github.com/akolanti/MLServe/internal/vision"
)

// runner is the part of an onnx session the classifier needs
type runner interface {
	Run(input []float32) ([]float32, error)
}

// Classifier runs the exported fine-tuned network in process
type Classifier struct {
	session runner
}

func New(session *onnxModel.Session) *Classifier {
	return &Classifier{session: session}
}

func (c *Classifier) PredictIndex(ctx context.Context, instance [][][]float32) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	probabilities, err := c.session.Run(vision.Flatten(instance))
	if err != nil {
		return 0, err
	}
	return classifier.Argmax(probabilities), nil
}

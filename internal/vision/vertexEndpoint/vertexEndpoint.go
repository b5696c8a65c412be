package vertexEndpoint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrEmptyPrediction = errors.New("endpoint returned no predictions")

type predictFunc func(ctx context.Context, req *aiplatformpb.PredictRequest) (*aiplatformpb.PredictResponse, error)

// Classifier calls a deployed Vertex AI endpoint with one image instance
type Classifier struct {
	endpoint string
	predict  predictFunc
	logger   *logger_i.Logger
}

// EndpointName accepts either a bare endpoint id or a full resource name
func EndpointName(project, location, endpoint string) string {
	if strings.HasPrefix(endpoint, "projects/") {
		return endpoint
	}
	return fmt.Sprintf("projects/%s/locations/%s/endpoints/%s", project, location, endpoint)
}

// NewClassifier connects to the regional prediction service. The client is
// closed when ctx is done.
func NewClassifier(ctx context.Context, project, location, endpoint string) (*Classifier, error) {
	logger := logger_i.NewLogger("Vertex Endpoint")
	if endpoint == "" {
		return nil, errors.New("vertex endpoint is not set")
	}

	client, err := aiplatform.NewPredictionClient(ctx, option.WithEndpoint(location+"-aiplatform.googleapis.com:443"))
	if err != nil {
		logger.Error("could not create prediction client", "error", err)
		return nil, err
	}
	go func() {
		<-ctx.Done()
		logger.Info("Closing Vertex prediction client")
		_ = client.Close()
	}()

	name := EndpointName(project, location, endpoint)
	logger.Info("Vertex prediction client created", "endpoint", name)
	return &Classifier{
		endpoint: name,
		predict: func(ctx context.Context, req *aiplatformpb.PredictRequest) (*aiplatformpb.PredictResponse, error) {
			return client.Predict(ctx, req)
		},
		logger: logger,
	}, nil
}

// ToInstance converts an HxWxC array into the nested list the endpoint expects
func ToInstance(instance [][][]float32) (*structpb.Value, error) {
	rows := make([]any, len(instance))
	for y, row := range instance {
		cols := make([]any, len(row))
		for x, px := range row {
			channels := make([]any, len(px))
			for c, v := range px {
				channels[c] = float64(v)
			}
			cols[x] = channels
		}
		rows[y] = cols
	}
	return structpb.NewValue(rows)
}

// flattenNumbers collects every number of a (possibly nested) prediction
func flattenNumbers(v *structpb.Value, out []float64) []float64 {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return append(out, kind.NumberValue)
	case *structpb.Value_ListValue:
		for _, item := range kind.ListValue.GetValues() {
			out = flattenNumbers(item, out)
		}
	}
	return out
}

func (c *Classifier) PredictIndex(ctx context.Context, instance [][][]float32) (int, error) {
	value, err := ToInstance(instance)
	if err != nil {
		return 0, err
	}

	resp, err := c.predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  c.endpoint,
		Instances: []*structpb.Value{value},
	})
	if err != nil {
		return 0, err
	}

	var probabilities []float64
	for _, p := range resp.GetPredictions() {
		probabilities = flattenNumbers(p, probabilities)
	}
	if len(probabilities) == 0 {
		return 0, ErrEmptyPrediction
	}
	idx := classifier.Argmax(probabilities)
	c.logger.WithTrace(ctx).Debug("Vertex prediction", "deployedModel", resp.GetDeployedModelId(), "index", idx)
	return idx, nil
}

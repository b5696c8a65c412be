package mcpserver

import (
	"context"
	"net/http"

	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type Predictor interface {
	PredictLabels(ctx context.Context, instances [][]float64) ([]string, error)
}

type SentimentClassifier interface {
	Classify(ctx context.Context, review string) (string, error)
}

type SimilarWords interface {
	MostSimilar(ctx context.Context, word string, topn int) ([]commonModels.Neighbour, error)
}

// Tools are the services exposed over MCP. A nil service registers no tool.
type Tools struct {
	Predictor Predictor
	Sentiment SentimentClassifier
	Words     SimilarWords
}

type IrisInput struct {
	SepalLength float64 `json:"sepal_length" jsonschema:"sepal length in cm"`
	SepalWidth  float64 `json:"sepal_width" jsonschema:"sepal width in cm"`
	PetalLength float64 `json:"petal_length" jsonschema:"petal length in cm"`
	PetalWidth  float64 `json:"petal_width" jsonschema:"petal width in cm"`
}

type IrisOutput struct {
	Label string `json:"label"`
}

type ReviewInput struct {
	Review string `json:"review" jsonschema:"free text product review"`
}

type ReviewOutput struct {
	Sentiment string `json:"sentiment"`
}

type SimilarInput struct {
	Word string `json:"word" jsonschema:"a single word"`
	TopN int    `json:"topn,omitempty" jsonschema:"number of neighbours, defaults to 10"`
}

type SimilarOutput struct {
	Neighbours []commonModels.Neighbour `json:"neighbours"`
}

var logger = logger_i.NewLogger("MCP")

func NewServer(version string, tools Tools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "mlserve", Version: version}, nil)

	if tools.Predictor != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "predict_iris",
			Description: "Classify an iris flower from its four measurements",
		}, predictIris(tools.Predictor))
	}
	if tools.Sentiment != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "analyze_sentiment",
			Description: "Label a review as positive, negative or neutral",
		}, analyzeSentiment(tools.Sentiment))
	}
	if tools.Words != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "similar_words",
			Description: "Find the vocabulary words closest to a word",
		}, similarWords(tools.Words))
	}
	return server
}

// Handler serves the streamable HTTP transport for server
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func predictIris(p Predictor) mcp.ToolHandlerFor[IrisInput, IrisOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in IrisInput) (*mcp.CallToolResult, IrisOutput, error) {
		sample := classifier.IrisSample(in)
		labels, err := p.PredictLabels(ctx, [][]float64{sample.Features()})
		if err != nil {
			logger.WithTrace(ctx).Error("predict_iris failed", "error", err)
			return nil, IrisOutput{}, err
		}
		return nil, IrisOutput{Label: labels[0]}, nil
	}
}

func analyzeSentiment(s SentimentClassifier) mcp.ToolHandlerFor[ReviewInput, ReviewOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ReviewInput) (*mcp.CallToolResult, ReviewOutput, error) {
		label, err := s.Classify(ctx, in.Review)
		if err != nil {
			logger.WithTrace(ctx).Error("analyze_sentiment failed", "error", err)
			return nil, ReviewOutput{}, err
		}
		return nil, ReviewOutput{Sentiment: label}, nil
	}
}

func similarWords(w SimilarWords) mcp.ToolHandlerFor[SimilarInput, SimilarOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SimilarInput) (*mcp.CallToolResult, SimilarOutput, error) {
		topn := in.TopN
		if topn == 0 {
			topn = 10
		}
		neighbours, err := w.MostSimilar(ctx, in.Word, topn)
		if err != nil {
			return nil, SimilarOutput{}, err
		}
		return nil, SimilarOutput{Neighbours: neighbours}, nil
	}
}

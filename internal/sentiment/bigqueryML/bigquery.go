package bigqueryML

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"cloud.google.com/go/bigquery"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/sentiment"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"google.golang.org/api/iterator"
)

var ErrNoRows = errors.New("ML.GENERATE_TEXT returned no rows")

// model references cannot be bound as query parameters, so they are checked instead
var modelPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+(\.[A-Za-z0-9_\-]+){1,2}$`)

const queryTemplate = "SELECT\n" +
	"  JSON_VALUE(ml_generate_text_result['predictions'][0]['content']) AS generated_text,\n" +
	"  TO_JSON_STRING(ml_generate_text_result['predictions'][0]['safetyAttributes']) AS safety_attributes\n" +
	"FROM\n" +
	"  ML.GENERATE_TEXT(\n" +
	"    MODEL `%s`,\n" +
	"    (SELECT @prompt AS prompt),\n" +
	"    STRUCT(%s AS temperature, %d AS max_output_tokens)\n" +
	"  );"

type row struct {
	GeneratedText    bigquery.NullString `bigquery:"generated_text"`
	SafetyAttributes bigquery.NullString `bigquery:"safety_attributes"`
}

type Analyzer struct {
	client *bigquery.Client
	model  string
	logger *logger_i.Logger
}

func NewAnalyzer(ctx context.Context, project string, model string) (*Analyzer, error) {
	if !modelPattern.MatchString(model) {
		return nil, fmt.Errorf("invalid bigquery model reference %q", model)
	}
	if project == "" {
		project = bigquery.DetectProjectID
	}
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	a := &Analyzer{client: client, model: model, logger: logger_i.NewLogger("BigQueryML")}
	go func() {
		<-ctx.Done()
		a.logger.Info("Closing BigQuery client")
		_ = client.Close()
	}()
	return a, nil
}

func (a *Analyzer) Name() string {
	return "bigquery"
}

func BuildQuery(model string) string {
	return fmt.Sprintf(queryTemplate, model,
		strconv.FormatFloat(config.SentimentTemperature, 'f', -1, 64), config.SentimentMaxOutputTokens)
}

func (a *Analyzer) Analyze(ctx context.Context, prompt string) (sentiment.Result, error) {
	log := a.logger.WithTrace(ctx)
	q := a.client.Query(BuildQuery(a.model))
	q.Parameters = []bigquery.QueryParameter{{Name: "prompt", Value: prompt}}
	log.Debug("Running BigQuery sentiment analysis", "model", a.model)

	it, err := q.Read(ctx)
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("bigquery read: %w", err)
	}

	var r row
	err = it.Next(&r)
	if errors.Is(err, iterator.Done) {
		return sentiment.Result{}, ErrNoRows
	}
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("bigquery row: %w", err)
	}
	return ToResult(r.GeneratedText.StringVal, r.SafetyAttributes.StringVal)
}

// ToResult decodes the safety attributes column and applies its blocked flag
func ToResult(generated string, safety string) (sentiment.Result, error) {
	result := sentiment.Result{GeneratedText: generated}
	if safety == "" || safety == "null" {
		return result, nil
	}
	if err := json.Unmarshal([]byte(safety), &result.SafetyAttributes); err != nil {
		return result, fmt.Errorf("safety attributes: %w", err)
	}
	if blocked, ok := result.SafetyAttributes["blocked"].(bool); ok {
		result.Blocked = blocked
	}
	return result, nil
}

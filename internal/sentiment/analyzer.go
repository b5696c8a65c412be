package sentiment

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/MLServe/internal/config"
)

var ErrEmptyReview = errors.New("review must not be empty")

const (
	Positive = "positive"
	Negative = "negative"
)

// Result is the raw answer of a text generation backend
type Result struct {
	GeneratedText    string
	Blocked          bool
	SafetyAttributes map[string]any
}

type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (Result, error)
	Name() string
}

func BuildPrompt(review string) string {
	return config.SentimentPrompt + review
}

// Label turns a backend result into the returned category.
// Blocked output counts as negative. Text naming exactly one category is reduced to it.
func Label(r Result) string {
	if r.Blocked {
		return Negative
	}
	text := strings.TrimSpace(r.GeneratedText)
	lower := strings.ToLower(text)
	hasPositive := strings.Contains(lower, Positive)
	hasNegative := strings.Contains(lower, Negative)
	switch {
	case hasPositive && !hasNegative:
		return Positive
	case hasNegative && !hasPositive:
		return Negative
	default:
		return text
	}
}

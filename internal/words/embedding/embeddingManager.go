package embedding

import (
	"context"
	"errors"
)

// ErrUnknownWord is returned when a word is not in the model vocabulary
var ErrUnknownWord = errors.New("word not in vocabulary")

// Embedder turns words into vectors. BatchEmbedding results are aligned with
// the input and hold nil for every word the backend could not embed.
type Embedder interface {
	GetEmbedding(ctx context.Context, word string) ([]float32, error)
	BatchEmbedding(ctx context.Context, words []string, isHugeDataSet bool) ([][]float32, error)
}

// Vocabulary is implemented by embedders that carry a fixed word list
type Vocabulary interface {
	Words() []string
}

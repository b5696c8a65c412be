package vectorDB

import (
	"context"
	"errors"

	"github.com/akolanti/MLServe/internal/domain/commonModels"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension does not match the collection")
	ErrZeroVector        = errors.New("cannot search with a zero vector")
	ErrLengthMismatch    = errors.New("words and vectors differ in length")
)

// Index is the nearest-neighbour store behind most_similar. Search runs
// against the vocabulary collection and never returns the excluded words.
type Index interface {
	CreateCollection(ctx context.Context, collectionName string) error
	Upsert(ctx context.Context, collectionName string, words []string, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, topn int, exclude []string) ([]commonModels.Neighbour, error)
}

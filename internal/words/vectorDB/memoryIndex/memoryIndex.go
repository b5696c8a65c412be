package memoryIndex

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/words/vectorDB"
	"gonum.org/v1/gonum/floats"
)

type entry struct {
	word   string
	raw    []float32
	normed []float64
}

type collection struct {
	dim     int
	entries []entry
	index   map[string]int
}

// Index is a brute force cosine index held in memory
type Index struct {
	mu          sync.RWMutex
	collections map[string]*collection
	searchIn    string
}

func New() *Index {
	return &Index{
		collections: make(map[string]*collection),
		searchIn:    config.VocabularyCollection,
	}
}

func (idx *Index) CreateCollection(_ context.Context, collectionName string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.collections[collectionName]; !ok {
		idx.collections[collectionName] = &collection{index: make(map[string]int)}
	}
	return nil
}

func (idx *Index) Upsert(ctx context.Context, collectionName string, words []string, vectors [][]float32) error {
	if len(words) != len(vectors) {
		return fmt.Errorf("%w: %d words, %d vectors", vectorDB.ErrLengthMismatch, len(words), len(vectors))
	}
	if err := idx.CreateCollection(ctx, collectionName); err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	c := idx.collections[collectionName]
	for i, w := range words {
		v := vectors[i]
		if v == nil {
			continue
		}
		if c.dim == 0 {
			c.dim = len(v)
		}
		if len(v) != c.dim {
			return fmt.Errorf("%w: %q has %d, want %d", vectorDB.ErrDimensionMismatch, w, len(v), c.dim)
		}
		e := entry{word: w, raw: v, normed: normalise(v)}
		if pos, ok := c.index[w]; ok {
			c.entries[pos] = e
			continue
		}
		c.index[w] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return nil
}

func (idx *Index) Search(ctx context.Context, vector []float32, topn int, exclude []string) ([]commonModels.Neighbour, error) {
	if topn <= 0 {
		return []commonModels.Neighbour{}, nil
	}
	query := normalise(vector)
	if query == nil {
		return nil, vectorDB.ErrZeroVector
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	c, ok := idx.collections[idx.searchIn]
	if !ok {
		return []commonModels.Neighbour{}, nil
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", vectorDB.ErrDimensionMismatch, len(vector), c.dim)
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, w := range exclude {
		skip[w] = struct{}{}
	}

	// best is kept sorted by decreasing similarity, ties keep insertion order
	best := make([]commonModels.Neighbour, 0, topn+1)
	for i, e := range c.entries {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if e.normed == nil {
			continue
		}
		if _, ok := skip[e.word]; ok {
			continue
		}
		sim := float32(floats.Dot(query, e.normed))
		if len(best) == topn && sim <= best[topn-1].Similarity {
			continue
		}
		pos, _ := slices.BinarySearchFunc(best, sim, func(n commonModels.Neighbour, s float32) int {
			if n.Similarity >= s {
				return -1
			}
			return 1
		})
		best = slices.Insert(best, pos, commonModels.Neighbour{Word: e.word, Similarity: sim, Vector: e.raw})
		if len(best) > topn {
			best = best[:topn]
		}
	}
	return best, nil
}

// Len reports the size of the searched collection
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if c, ok := idx.collections[idx.searchIn]; ok {
		return len(c.entries)
	}
	return 0
}

// normalise returns v scaled to unit length, nil for a zero vector
func normalise(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	norm := floats.Norm(out, 2)
	if norm == 0 {
		return nil
	}
	floats.Scale(1/norm, out)
	return out
}

package memoryIndex

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/words/vectorDB"
)

func seeded(t *testing.T) *Index {
	t.Helper()
	idx := New()
	words := []string{"king", "queen", "prince", "car", "truck", "zero"}
	vectors := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0.8, 0.3, 0},
		{0, 0, 1},
		{0, 0.1, 0.9},
		{0, 0, 0},
	}
	if err := idx.Upsert(context.Background(), config.VocabularyCollection, words, vectors); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	return idx
}

func TestSearch_OrderAndExclusion(t *testing.T) {
	idx := seeded(t)
	got, err := idx.Search(context.Background(), []float32{2, 0, 0}, 3, []string{"king"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbours, got %d", len(got))
	}
	if got[0].Word != "queen" || got[1].Word != "prince" {
		t.Errorf("unexpected order %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Errorf("results not sorted at %d", i)
		}
	}
	for _, n := range got {
		if n.Word == "king" || n.Word == "zero" {
			t.Errorf("%s must not be returned", n.Word)
		}
	}
	if got[0].Vector == nil {
		t.Error("neighbours must carry their raw vector")
	}
}

func TestSearch_Cosine(t *testing.T) {
	idx := seeded(t)
	got, err := idx.Search(context.Background(), []float32{0, 0, 5}, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Word != "car" || math.Abs(float64(got[0].Similarity)-1) > 1e-6 {
		t.Errorf("expected car with similarity 1, got %+v", got[0])
	}
}

func TestSearch_Errors(t *testing.T) {
	idx := seeded(t)
	ctx := context.Background()

	if _, err := idx.Search(ctx, []float32{0, 0, 0}, 3, nil); !errors.Is(err, vectorDB.ErrZeroVector) {
		t.Errorf("expected ErrZeroVector, got %v", err)
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 3, nil); !errors.Is(err, vectorDB.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if got, err := idx.Search(ctx, []float32{1, 0, 0}, 0, nil); err != nil || len(got) != 0 {
		t.Errorf("topn 0 should return nothing, got %v %v", got, err)
	}
}

func TestUpsert(t *testing.T) {
	idx := seeded(t)
	ctx := context.Background()

	if err := idx.Upsert(ctx, config.VocabularyCollection, []string{"a"}, nil); !errors.Is(err, vectorDB.ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
	if err := idx.Upsert(ctx, config.VocabularyCollection, []string{"a"}, [][]float32{{1, 2}}); !errors.Is(err, vectorDB.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	before := idx.Len()
	if err := idx.Upsert(ctx, config.VocabularyCollection, []string{"car", "missing"}, [][]float32{{1, 0, 0}, nil}); err != nil {
		t.Fatal(err)
	}
	if idx.Len() != before {
		t.Errorf("re-upserting must replace, nil vectors are skipped: %d -> %d", before, idx.Len())
	}
	got, _ := idx.Search(ctx, []float32{1, 0, 0}, 1, nil)
	if got[0].Word != "king" && got[0].Word != "car" {
		t.Errorf("car should now point along x, got %+v", got[0])
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	got, err := New().Search(context.Background(), []float32{1}, 5, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("empty index should return nothing, got %v %v", got, err)
	}
}

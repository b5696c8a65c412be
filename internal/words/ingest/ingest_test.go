package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

type mockEmbedder struct {
	batchFunc func(ctx context.Context, words []string, isHuge bool) ([][]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, word string) ([]float32, error) {
	return nil, nil
}
func (m *mockEmbedder) BatchEmbedding(ctx context.Context, words []string, isHuge bool) ([][]float32, error) {
	return m.batchFunc(ctx, words, isHuge)
}

type mockIndex struct {
	upsertFunc func(ctx context.Context, coll string, words []string, vectors [][]float32) error
}

func (m *mockIndex) CreateCollection(ctx context.Context, name string) error { return nil }
func (m *mockIndex) Upsert(ctx context.Context, coll string, words []string, vectors [][]float32) error {
	return m.upsertFunc(ctx, coll, words, vectors)
}
func (m *mockIndex) Search(ctx context.Context, v []float32, topn int, exclude []string) ([]commonModels.Neighbour, error) {
	return nil, nil
}

func oneVectorEach(ctx context.Context, words []string, isHuge bool) ([][]float32, error) {
	out := make([][]float32, len(words))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestGetDocType(t *testing.T) {
	tests := []struct {
		path     string
		expected commonModels.DocType
	}{
		{"test.pdf", commonModels.PDF},
		{"DOC.DOCX", commonModels.DOCX},
		{"notes.txt", commonModels.TXT},
		{"image.png", commonModels.ERR},
	}

	for _, tt := range tests {
		if got := getDocType(tt.path); got != tt.expected {
			t.Errorf("getDocType(%s) = %v; want %v", tt.path, got, tt.expected)
		}
	}
}

func TestTokenize(t *testing.T) {
	pages := []rawPage{
		{Number: 1, Content: "The king met the queen, then the King left. 42 times!"},
		{Number: 2, Content: "queen's café"},
	}
	got := strings.Join(Tokenize(pages), ",")
	want := "The,king,met,the,queen,then,King,left,times,s,café"
	if got != want {
		t.Errorf("Tokenize() = %s, want %s", got, want)
	}
}

func TestBatchIngest(t *testing.T) {
	words := make([]string, 150) // two batches, 100 + 50
	for i := range words {
		words[i] = "word"
	}

	callCount := 0
	index := &mockIndex{
		upsertFunc: func(ctx context.Context, coll string, w []string, v [][]float32) error {
			if coll != config.VocabularyCollection {
				t.Errorf("unexpected collection %s", coll)
			}
			callCount++
			return nil
		},
	}
	emb := &mockEmbedder{batchFunc: func(ctx context.Context, w []string, huge bool) ([][]float32, error) {
		out, _ := oneVectorEach(ctx, w, huge)
		out[0] = nil // one unknown word per batch
		return out, nil
	}}

	count, err := BatchIngest(context.Background(), words, index, emb, logger_i.NewLogger("test"))
	if err != nil {
		t.Fatalf("BatchIngest failed: %v", err)
	}
	if callCount != 2 {
		t.Errorf("Expected 2 batches to be upserted, got %d", callCount)
	}
	if count != 148 {
		t.Errorf("Expected 148 embedded words, got %d", count)
	}
}

func TestBatchIngest_Errors(t *testing.T) {
	log := logger_i.NewLogger("test")
	okIndex := &mockIndex{upsertFunc: func(ctx context.Context, coll string, w []string, v [][]float32) error { return nil }}
	badIndex := &mockIndex{upsertFunc: func(ctx context.Context, coll string, w []string, v [][]float32) error {
		return errors.New("upsert failed")
	}}
	badEmbedder := &mockEmbedder{batchFunc: func(ctx context.Context, w []string, huge bool) ([][]float32, error) {
		return nil, errors.New("quota")
	}}

	if _, err := BatchIngest(context.Background(), []string{"hi"}, badIndex, &mockEmbedder{batchFunc: oneVectorEach}, log); err == nil {
		t.Error("Expected upsert error, got nil")
	}
	if _, err := BatchIngest(context.Background(), []string{"hi"}, okIndex, badEmbedder, log); err == nil {
		t.Error("Expected embedding error, got nil")
	}
}

func TestProcessDocumentIngestion_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload-1")
	if err := os.WriteFile(path, []byte("peace and war, war and peace"), 0o644); err != nil {
		t.Fatal(err)
	}

	var upserted []string
	index := &mockIndex{upsertFunc: func(ctx context.Context, coll string, w []string, v [][]float32) error {
		upserted = append(upserted, w...)
		return nil
	}}
	job := jobModel.Job{
		Id:         "job-1",
		JobType:    jobModel.JobTypeIngest,
		JobPayload: jobModel.JobPayload{IngestFileName: "novel.txt", IngestURL: path},
	}

	got, err := ProcessDocumentIngestion(context.Background(), job, &mockEmbedder{batchFunc: oneVectorEach}, index)
	if err != nil {
		t.Fatalf("ProcessDocumentIngestion failed: %v", err)
	}
	if got.JobPayload.WordsIngested != 3 || strings.Join(upserted, ",") != "peace,and,war" {
		t.Errorf("unexpected ingestion %d %v", got.JobPayload.WordsIngested, upserted)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("uploaded file should be removed after ingestion")
	}
}

func TestProcessDocumentIngestion_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload-2")
	_ = os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644)
	job := jobModel.Job{JobPayload: jobModel.JobPayload{IngestFileName: "photo.png", IngestURL: path}}

	_, err := ProcessDocumentIngestion(context.Background(), job, &mockEmbedder{batchFunc: oneVectorEach}, &mockIndex{})
	if !errors.Is(err, ErrUnsupportedDocument) {
		t.Errorf("expected ErrUnsupportedDocument, got %v", err)
	}
}

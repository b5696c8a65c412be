package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/words/embedding"
	"github.com/akolanti/MLServe/internal/words/vectorDB"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var ErrUnsupportedDocument = errors.New("unsupported document type")

type rawPage struct {
	Number  int
	Content string
}

func getDocType(docPath string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

func extractText(path string, contentType commonModels.DocType, log *logger_i.Logger) ([]rawPage, error) {
	switch contentType {
	case commonModels.PDF:
		return extractPDF(path, log)
	case commonModels.DOCX, commonModels.TXT:
		return extractDocument(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, contentType)
	}
}

// Tokenize splits the pages into letter-only words, keeping the first
// occurrence of each word.
func Tokenize(pages []rawPage) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, page := range pages {
		for _, w := range strings.FieldsFunc(page.Content, func(r rune) bool { return !unicode.IsLetter(r) }) {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}
	return words
}

// BatchIngest embeds words in batches and upserts them into the vocabulary
// collection. It returns how many words received a vector.
func BatchIngest(ctx context.Context, words []string, index vectorDB.Index, embedder embedding.Embedder, log *logger_i.Logger) (int, error) {
	batchSize := config.EmbeddingBatchSize
	isHugeDataSet := len(words) > config.HugeDataSetThreshold
	if isHugeDataSet {
		log.Debug("Is a huge dataset")
	}

	ingested := 0
	for i := 0; i < len(words); i += batchSize {
		end := min(i+batchSize, len(words))
		batch := words[i:end]

		vectors, err := embedder.BatchEmbedding(ctx, batch, isHugeDataSet)
		if err != nil {
			return ingested, fmt.Errorf("embedding batch failed: %w", err)
		}

		if err := index.Upsert(ctx, config.VocabularyCollection, batch, vectors); err != nil {
			return ingested, fmt.Errorf("upserting vocabulary failed: %w", err)
		}
		for _, v := range vectors {
			if v != nil {
				ingested++
			}
		}
	}
	return ingested, nil
}

// ProcessDocumentIngestion runs an ingestion job end to end. The uploaded file
// is removed once it has been read.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, e embedding.Embedder, index vectorDB.Index) (jobModel.Job, error) {
	log := logger_i.NewLogger("Document Ingestion").WithTrace(ctx).With("jobId", job.Id)

	docName := job.JobPayload.IngestFileName
	docPath := job.JobPayload.IngestURL
	log.Debug("Processing document", "filename", docName, "path", docPath)
	defer func() {
		if err := os.Remove(docPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error("Error removing file", "error", err)
		}
	}()

	job.CurrentStep = jobModel.IngestProcessing
	if err := index.CreateCollection(ctx, config.VocabularyCollection); err != nil {
		return job, fmt.Errorf("creating collection: %w", err)
	}

	docType := getDocType(docName)
	if docType == commonModels.ERR {
		docType = getDocType(docPath)
	}
	pages, err := extractText(docPath, docType, log)
	if err != nil {
		return job, err
	}

	words := Tokenize(pages)
	log.Debug("Processing document", "pages", len(pages), "words", len(words))

	count, err := BatchIngest(ctx, words, index, e, log)
	job.JobPayload.WordsIngested = count
	if err != nil {
		return job, err
	}
	return job, nil
}

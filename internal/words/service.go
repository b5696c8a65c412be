package words

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/metrics"
	"github.com/akolanti/MLServe/internal/words/embedding"
	"github.com/akolanti/MLServe/internal/words/ingest"
	"github.com/akolanti/MLServe/internal/words/plot"
	"github.com/akolanti/MLServe/internal/words/tsne"
	"github.com/akolanti/MLServe/internal/words/vectorDB"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

// Service answers similarity questions and renders the word cluster figure.
// The worker pool calls ProcessFigure and IngestDocument, handlers call the rest.
type Service struct {
	embedder   embedding.Embedder
	index      vectorDB.Index
	tsneParams tsne.Params
	logger     *logger_i.Logger
}

func NewService(e embedding.Embedder, index vectorDB.Index) *Service {
	return &Service{
		embedder:   e,
		index:      index,
		tsneParams: tsne.DefaultParams(),
		logger:     logger_i.NewLogger("Words Service"),
	}
}

// WithTSNEParams overrides the projection settings, mostly for tests
func (s *Service) WithTSNEParams(p tsne.Params) *Service {
	s.tsneParams = p
	return s
}

// MostSimilar returns the topn nearest vocabulary words, the word itself excluded
func (s *Service) MostSimilar(ctx context.Context, word string, topn int) ([]commonModels.Neighbour, error) {
	sig := MostSimilarSignature{Word: word, TopN: topn}
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	vec, err := s.embedder.GetEmbedding(ctx, word)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()
	return s.index.Search(ctx, vec, topn, []string{word})
}

// GetWordClusters looks up the topn similar words of every query word.
// Unknown words are reported in Missing.
func (s *Service) GetWordClusters(ctx context.Context, words []string, topn int) (WordClusters, error) {
	if topn < 1 {
		return WordClusters{}, ErrInvalidTopN
	}
	vectors, err := s.embedder.BatchEmbedding(ctx, words, false)
	if err != nil {
		return WordClusters{}, err
	}
	return s.searchClusters(ctx, words, vectors, topn)
}

func (s *Service) searchClusters(ctx context.Context, words []string, vectors [][]float32, topn int) (WordClusters, error) {
	clusters := WordClusters{
		Words:      []string{},
		Clusters:   [][]string{},
		Embeddings: [][][]float32{},
	}
	for i, w := range words {
		if i >= len(vectors) || vectors[i] == nil {
			clusters.Missing = append(clusters.Missing, w)
			continue
		}
		neighbours, err := s.index.Search(ctx, vectors[i], topn, []string{w})
		if errors.Is(err, vectorDB.ErrZeroVector) {
			clusters.Missing = append(clusters.Missing, w)
			continue
		}
		if err != nil {
			return WordClusters{}, err
		}

		similar := make([]string, 0, len(neighbours))
		embeddings := make([][]float32, 0, len(neighbours))
		for _, n := range neighbours {
			similar = append(similar, n.Word)
			embeddings = append(embeddings, n.Vector)
		}
		clusters.Words = append(clusters.Words, w)
		clusters.Clusters = append(clusters.Clusters, similar)
		clusters.Embeddings = append(clusters.Embeddings, embeddings)
	}

	if len(words) > 0 && len(clusters.Words) == 0 {
		return clusters, ErrNoKnownWords
	}
	return clusters, nil
}

// ReshapedTSNE projects every cluster vector to 2-D in one t-SNE run and
// splits the result back into clusters.
func ReshapedTSNE(ctx context.Context, embeddings [][][]float32, p tsne.Params) ([][][2]float64, error) {
	var flat [][]float64
	for _, cluster := range embeddings {
		for _, vec := range cluster {
			row := make([]float64, len(vec))
			for i, v := range vec {
				row[i] = float64(v)
			}
			flat = append(flat, row)
		}
	}

	projected, err := tsne.Embed(ctx, flat, p)
	if err != nil {
		return nil, err
	}

	out := make([][][2]float64, len(embeddings))
	offset := 0
	for c, cluster := range embeddings {
		out[c] = projected[offset : offset+len(cluster)]
		offset += len(cluster)
	}
	return out, nil
}

// BuildFigure runs the whole pipeline synchronously
func (s *Service) BuildFigure(ctx context.Context, words []string, topn int) (plot.Figure, []string, error) {
	clusters, err := s.GetWordClusters(ctx, words, topn)
	if err != nil {
		return plot.Figure{}, clusters.Missing, err
	}
	points, err := ReshapedTSNE(ctx, clusters.Embeddings, s.tsneParams)
	if err != nil {
		return plot.Figure{}, clusters.Missing, err
	}
	return plot.NewFigure(clusters.Words, clusters.Clusters, points), clusters.Missing, nil
}

// ProcessFigure is the figure job: embed, search, project, plot
func (s *Service) ProcessFigure(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id)
	job.CurrentStep = jobModel.FigureInit

	topn := job.JobPayload.TopN
	if topn <= 0 {
		topn = config.DefaultTopN
	}

	vectors, err := s.executeEmbeddingStep(ctx, log, &job)
	if err != nil {
		return s.jobError(job, err, "EMBEDDING_FAILURE", true)
	}

	clusters, err := s.executeVectorSearchStep(ctx, log, &job, vectors, topn)
	job.JobPayload.MissingWords = clusters.Missing
	if errors.Is(err, ErrNoKnownWords) {
		job = s.jobError(job, err, "NO_KNOWN_WORDS", false)
		job.Error.Code = http.StatusUnprocessableEntity
		job.Error.Message = err.Error()
		return job
	}
	if err != nil {
		return s.jobError(job, err, "VECTOR_DB_FAILURE", true)
	}

	points, err := s.executeTSNEStep(ctx, log, &job, clusters)
	if err != nil {
		return s.jobError(job, err, "TSNE_FAILURE", true)
	}

	if err := s.executePlotStep(log, &job, clusters, points); err != nil {
		return s.jobError(job, err, "PLOT_FAILURE", false)
	}

	job.CurrentStep = jobModel.Complete
	return job
}

func (s *Service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	job.CurrentStep = jobModel.IngestInit
	j, err := ingest.ProcessDocumentIngestion(ctx, job, s.embedder, s.index)
	if errors.Is(err, ingest.ErrUnsupportedDocument) {
		j = s.jobError(j, err, "INGESTION_FAILURE", false)
		j.Error.Code = http.StatusUnprocessableEntity
		j.Error.Message = err.Error()
		return j
	}
	if err != nil {
		return s.jobError(j, err, "INGESTION_FAILURE", true)
	}
	j.CurrentStep = jobModel.Complete
	return j
}

// SeedIndex loads the embedder's whole vocabulary into the index, used at
// startup when the in-memory index serves a word2vec model.
func SeedIndex(ctx context.Context, vocab embedding.Vocabulary, e embedding.Embedder, index vectorDB.Index) (int, error) {
	log := logger_i.NewLogger("Words Service")
	if err := index.CreateCollection(ctx, config.VocabularyCollection); err != nil {
		return 0, err
	}
	words := vocab.Words()
	seeded, err := ingest.BatchIngest(ctx, words, index, e, log)
	if err != nil {
		return seeded, err
	}
	log.Info("Vocabulary index seeded", "words", seeded)
	return seeded, nil
}

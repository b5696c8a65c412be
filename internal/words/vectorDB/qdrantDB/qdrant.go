package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/commonModels"
	"github.com/akolanti/MLServe/internal/words/vectorDB"
	"github.com/akolanti/MLServe/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const wordField = "word"

// pointNamespace makes point ids stable, so re-ingesting a word overwrites it
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mlserve/word-vocabulary"))

type ClientHolder struct {
	QObj       *qdrant.Client
	dimension  uint64
	collection string
	logger     *logger_i.Logger
}

// NewClient connects to qdrant and makes sure the vocabulary collection
// exists. The connection is closed when ctx is done.
func NewClient(ctx context.Context, settings *config.Settings) (*ClientHolder, error) {
	logger := logger_i.NewLogger("Qdrant")

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     settings.QdrantHost,
		Port:     settings.QdrantPort,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil, err
	}

	holder := &ClientHolder{
		QObj:       client,
		dimension:  uint64(config.EmbeddingOutputDimensionality),
		collection: config.VocabularyCollection,
		logger:     logger,
	}

	initCtx, cancel := context.WithTimeout(ctx, config.QdrantConnectionTimeout)
	defer cancel()
	if err := holder.CreateCollection(initCtx, holder.collection); err != nil {
		logger.Error("could not create collection", "collectionName", holder.collection, "error", err)
		_ = client.Close()
		return nil, err
	}

	go closeQdrant(ctx, holder)
	return holder, nil
}

func closeQdrant(ctx context.Context, holder *ClientHolder) {
	<-ctx.Done()
	holder.logger.Info("Shutting down Qdrant")
	if err := holder.QObj.Close(); err != nil {
		holder.logger.Error("could not close Qdrant", "error", err)
	}
}

// PointID maps a word to its deterministic point id
func PointID(word string) string {
	return uuid.NewSHA1(pointNamespace, []byte(word)).String()
}

func (db *ClientHolder) CreateCollection(ctx context.Context, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.QObj.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) Upsert(ctx context.Context, collectionName string, words []string, vectors [][]float32) error {
	points, err := toPoints(words, vectors)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Search(ctx context.Context, vector []float32, topn int, exclude []string) ([]commonModels.Neighbour, error) {
	log := db.logger.WithTrace(ctx)
	if topn <= 0 {
		return []commonModels.Neighbour{}, nil
	}

	result, err := db.QObj.Query(ctx, searchRequest(db.collection, vector, topn, exclude))
	if err != nil {
		log.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	neighbours := toNeighbours(result)
	log.Debug("Found neighbours", "count", len(neighbours))
	return neighbours, nil
}

func toPoints(words []string, vectors [][]float32) ([]*qdrant.PointStruct, error) {
	if len(words) != len(vectors) {
		return nil, fmt.Errorf("%w: got %d words but %d vectors", vectorDB.ErrLengthMismatch, len(words), len(vectors))
	}

	points := make([]*qdrant.PointStruct, 0, len(words))
	for i, w := range words {
		if vectors[i] == nil {
			continue
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(w)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{wordField: w}),
		})
	}
	return points, nil
}

func searchRequest(collection string, vector []float32, topn int, exclude []string) *qdrant.QueryPoints {
	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topn)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	}
	if len(exclude) > 0 {
		req.Filter = &qdrant.Filter{
			MustNot: []*qdrant.Condition{qdrant.NewMatchKeywords(wordField, exclude...)},
		}
	}
	return req
}

func toNeighbours(points []*qdrant.ScoredPoint) []commonModels.Neighbour {
	neighbours := make([]commonModels.Neighbour, 0, len(points))
	for _, hit := range points {
		word := hit.GetPayload()[wordField].GetStringValue()
		if word == "" {
			continue
		}
		out := hit.GetVectors().GetVector()
		vec := out.GetDense().GetData()
		if vec == nil {
			vec = out.GetData()
		}
		neighbours = append(neighbours, commonModels.Neighbour{
			Word:       word,
			Similarity: hit.GetScore(),
			Vector:     vec,
		})
	}
	return neighbours
}

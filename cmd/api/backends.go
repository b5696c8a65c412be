package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/akolanti/MLServe/internal/classifier"
	"github.com/akolanti/MLServe/internal/classifier/artifact"
	"github.com/akolanti/MLServe/internal/classifier/forest"
	"github.com/akolanti/MLServe/internal/classifier/onnxModel"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/data/redisStore"
	"github.com/akolanti/MLServe/internal/sentiment"
	"github.com/akolanti/MLServe/internal/sentiment/bigqueryML"
	"github.com/akolanti/MLServe/internal/sentiment/gemini"
	"github.com/akolanti/MLServe/internal/sentiment/openaiLLM"
	"github.com/akolanti/MLServe/internal/vision"
	"github.com/akolanti/MLServe/internal/vision/cloudVision"
	"github.com/akolanti/MLServe/internal/vision/localModel"
	"github.com/akolanti/MLServe/internal/vision/rekognition"
	"github.com/akolanti/MLServe/internal/vision/vertexEndpoint"
	"github.com/akolanti/MLServe/internal/words"
	"github.com/akolanti/MLServe/internal/words/embedding"
	"github.com/akolanti/MLServe/internal/words/embedding/googleEmbedding"
	"github.com/akolanti/MLServe/internal/words/embedding/word2vec"
	"github.com/akolanti/MLServe/internal/words/tsne"
	"github.com/akolanti/MLServe/internal/words/vectorDB"
	"github.com/akolanti/MLServe/internal/words/vectorDB/memoryIndex"
	"github.com/akolanti/MLServe/internal/words/vectorDB/qdrantDB"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

var backendLogger = logger_i.NewLogger("Backends")

// buildClassifier loads the iris model, downloading it first when AIP_STORAGE_URI is set
func buildClassifier(ctx context.Context, settings *config.Settings) (*classifier.Service, error) {
	name := config.ModelArtifactForest
	if settings.ModelBackend == "onnx" {
		name = config.ModelArtifactONNX
	}
	modelPath := filepath.Join(settings.ModelDir, name)
	metadataPath := filepath.Join(settings.ModelDir, config.ModelMetadataFile)

	if settings.StorageURI != "" {
		fetcher := artifact.NewFetcher()
		var err error
		if modelPath, err = fetcher.Fetch(ctx, settings.StorageURI, settings.ModelDir, name); err != nil {
			return nil, fmt.Errorf("fetch model: %w", err)
		}
		if settings.ModelBackend == "onnx" {
			if metadataPath, err = fetcher.Fetch(ctx, settings.StorageURI, settings.ModelDir, config.ModelMetadataFile); err != nil {
				return nil, fmt.Errorf("fetch model metadata: %w", err)
			}
		}
	}

	switch settings.ModelBackend {
	case "onnx":
		session, err := onnxModel.NewSession(modelPath, metadataPath, settings.ONNXLibrary)
		if err != nil {
			return nil, err
		}
		return classifier.NewService(session, "onnx"), nil
	case "forest", "":
		model, err := forest.Load(modelPath)
		if err != nil {
			return nil, err
		}
		return classifier.NewService(model, "forest"), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", settings.ModelBackend)
	}
}

func buildSentiment(ctx context.Context, settings *config.Settings) (*sentiment.Service, error) {
	var analyzer sentiment.Analyzer
	var err error
	switch settings.SentimentProvider {
	case "bigquery":
		analyzer, err = bigqueryML.NewAnalyzer(ctx, settings.GCPProject, settings.BigQueryModel)
	case "gemini":
		analyzer, err = gemini.NewAnalyzer(ctx, settings.GeminiAPIKey, settings.GeminiModel)
	case "openai":
		if settings.OpenAIAPIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is not set")
		}
		analyzer = openaiLLM.NewAnalyzer(settings.OpenAIAPIKey, settings.OpenAIModel, settings.OpenAIBaseURL)
	default:
		return nil, fmt.Errorf("unknown sentiment provider %q", settings.SentimentProvider)
	}
	if err != nil {
		return nil, err
	}

	var cache sentiment.Cache
	if cacheStore := redisStore.GetRedisStore(ctx, settings, config.RedisSentimentCache); cacheStore != nil {
		cache = sentiment.NewRedisCache(cacheStore)
	}
	return sentiment.NewService(analyzer, cache), nil
}

// buildWords pairs an embedder with a vocabulary index. A local word2vec model
// seeds its whole vocabulary into the index at startup.
func buildWords(ctx context.Context, settings *config.Settings) (*words.Service, error) {
	var embedder embedding.Embedder
	var vocab embedding.Vocabulary

	switch settings.EmbeddingProvider {
	case "word2vec":
		if settings.Word2VecPath == "" {
			return nil, errors.New("WORD2VEC_PATH is not set")
		}
		model, err := word2vec.Load(settings.Word2VecPath, settings.Word2VecLimit)
		if err != nil {
			return nil, err
		}
		backendLogger.Info("Loaded word2vec model", "words", len(model.Words()), "dim", model.Dim())
		embedder, vocab = model, model
	case "gemini":
		e, err := googleEmbedding.NewEmbedder(ctx, settings.GeminiAPIKey, config.GoogleEmbeddingModel)
		if err != nil {
			return nil, err
		}
		embedder = e
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", settings.EmbeddingProvider)
	}

	var index vectorDB.Index
	switch settings.VectorIndex {
	case "qdrant":
		holder, err := qdrantDB.NewClient(ctx, settings)
		if err != nil {
			return nil, err
		}
		index = holder
	case "memory", "":
		index = memoryIndex.New()
	default:
		return nil, fmt.Errorf("unknown vector index %q", settings.VectorIndex)
	}

	if vocab != nil {
		if _, err := words.SeedIndex(ctx, vocab, embedder, index); err != nil {
			return nil, fmt.Errorf("seed vocabulary index: %w", err)
		}
	}
	params := tsne.DefaultParams()
	params.Perplexity = settings.TSNEPerplexity
	params.Iterations = settings.TSNEIterations
	return words.NewService(embedder, index).WithTSNEParams(params), nil
}

// buildVision returns nil when neither a detector nor a celebrity classifier could be created
func buildVision(ctx context.Context, settings *config.Settings) *vision.Service {
	cfg := vision.ServiceConfig{}

	if settings.FaceDetector == "cloudvision" {
		if detector, err := cloudVision.NewDetector(ctx); err != nil {
			backendLogger.Error("Cloud Vision unavailable", "error", err)
		} else {
			cfg.Detector = detector
		}
		if recognizer, err := rekognition.NewRecognizer(ctx, settings.AWSProfile, settings.AWSRegion); err != nil {
			backendLogger.Error("Rekognition unavailable", "error", err)
		} else {
			cfg.Recognizer = recognizer
		}
	}

	switch settings.CelebrityProvider {
	case "vertex":
		if c, err := vertexEndpoint.NewClassifier(ctx, settings.VertexProject, settings.VertexLocation, settings.VertexEndpoint); err != nil {
			backendLogger.Error("Vertex AI endpoint unavailable", "error", err)
		} else {
			cfg.Classifier = c
		}
	case "local":
		session, err := onnxModel.NewSession(
			filepath.Join(settings.CelebrityModelDir, config.ModelArtifactONNX),
			filepath.Join(settings.CelebrityModelDir, config.ModelMetadataFile),
			settings.ONNXLibrary,
		)
		if err != nil {
			backendLogger.Error("Local celebrity model unavailable", "error", err)
		} else {
			cfg.Classifier = localModel.New(session)
			go func() {
				<-ctx.Done()
				_ = session.Close()
			}()
		}
	}

	if cfg.Classifier != nil {
		names, err := vision.LoadCelebrityNames(settings.CelebrityMappingPath)
		if err != nil {
			backendLogger.Error("Celebrity names unavailable", "error", err)
		}
		cfg.Names = names
	}

	if cfg.Detector == nil && cfg.Classifier == nil {
		return nil
	}
	return vision.NewService(cfg)
}

package config

import (
	"log/slog"
	"time"
)

type ctxKey string

// TRACE_ID_KEY is the context key the trace middleware stores the request trace id under
const TRACE_ID_KEY ctxKey = "traceId"

const (
	LOG_LEVEL_PROD              = slog.LevelInfo
	LOG_LEVEL_DEV               = slog.LevelDebug
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobTimeout                      = 5 * time.Minute

	//serverTimeouts
	ReadTimeout            = 15 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	MaxUploadSize = 32 << 20 //32mb

	//model serving - vertex custom container contract
	DefaultHealthRoute  = "/health"
	DefaultPredictRoute = "/v1/predict"
	ModelArtifactForest = "model.json"
	ModelArtifactONNX   = "model.onnx"
	ModelMetadataFile   = "model_metadata.json"
	DefaultModelDir     = "./models"

	//sentiment
	SentimentPrompt          = "perform sentiment analysis on the following text, return one the following categories: positive, negative: "
	SentimentTemperature     = 0.2
	SentimentMaxOutputTokens = 10
	DefaultBigQueryModel     = "aiedge_imdb_data.llm_model"
	SentimentTimeout         = 30 * time.Second

	//llm
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIModelName      = "gpt-4o-mini"

	//embeddings
	EmbeddingOutputDimensionality int32 = 300 //matches word2vec-google-news-300
	DefaultWord2VecLimit                = 200000
	EmbeddingBatchSize                  = 100
	HugeDataSetThreshold                = 1000000
	VocabularyCollection                = "word-vocabulary"
	EmbeddingBatchPollInterval          = 30 * time.Second
	EmbeddingRetryDelay                 = 5 * time.Second

	//similar words + t-SNE
	DefaultTopN              = 30
	DefaultSimilarTopN       = 10
	MaxTopN                  = 100
	TSNEPerplexity           = 15.0
	TSNEIterations           = 3500
	TSNEEarlyExaggeration    = 12.0
	TSNEExaggerationSteps    = 250
	TSNEMinGain              = 0.01
	AnnotationOffsetFraction = 0.2
	FigureTitle              = "Similar Words from Google News"

	//vision
	CelebrityImageLen    = 112
	DefaultAWSRegion     = "us-east-1"
	DefaultAWSProfile    = "rekognition"
	DefaultVertexRegion  = "us-east4"
	FaceBoxLineWidth     = 5
	MaxFacesPerImage     = 10
	VisionRequestTimeout = 30 * time.Second

	//dashboard websocket
	WSPongWait       = 60 * time.Second
	WSPingPeriod     = 30 * time.Second
	WSWriteWait      = 10 * time.Second
	WSReadLimit      = 512
	WSClientBuffer   = 8
	HubMessageBuffer = 64

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = "localhost"
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false //set for https
	QdrantPoolSize          = 1     //2-5 is preferred for prod according to documentation

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second
	HttpClientTimeout   = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore       = 0
	RedisBoardStore     = 1
	RedisSentimentCache = 2

	//redis timeouts
	RedisJobStoreTTL       = 24 * time.Hour
	RedisBoardStoreTTL     = 24 * time.Hour
	RedisSentimentCacheTTL = 24 * time.Hour

	//audit
	DefaultAuditDBPath   = "./data/audit.db"
	DefaultHistoryLimit  = 50
	MaxHistoryLimit      = 500
	AuditPayloadMaxBytes = 4096
)

// StarterWords seed every new dashboard board
var StarterWords = []string{
	"Paris",
	"Python",
	"Sunday",
	"Tolstoy",
	"Twitter",
	"bachelor",
	"delivery",
	"election",
	"expensive",
	"experience",
	"financial",
	"food",
	"iOS",
	"peace",
	"release",
	"war",
}

// IrisClassNames is load_iris().target_names
var IrisClassNames = []string{"setosa", "versicolor", "virginica"}

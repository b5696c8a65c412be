package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Settings holds everything that is allowed to change between deployments.
// Defaults come from the constants in environmentVariables.go.
type Settings struct {
	ListenAddr       string
	IsProd           bool
	LogLevel         string
	AuthToken        string
	RateLimitEnabled bool

	RedisAddr     string
	RedisPassword string
	QdrantHost    string
	QdrantPort    int
	AuditDBPath   string

	//model serving
	StorageURI   string
	HealthRoute  string
	PredictRoute string
	ModelBackend string
	ModelDir     string
	ONNXLibrary  string

	//sentiment
	SentimentProvider string
	GCPProject        string
	BigQueryModel     string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string

	//words
	EmbeddingProvider string
	Word2VecPath      string
	Word2VecLimit     int
	VectorIndex       string
	TSNEPerplexity    float64
	TSNEIterations    int

	//vision
	FaceDetector         string
	CelebrityProvider    string
	AWSProfile           string
	AWSRegion            string
	VertexProject        string
	VertexLocation       string
	VertexEndpoint       string
	CelebrityMappingPath string
	CelebrityModelDir    string
}

// Load reads an optional .env file and then the process environment
func Load() *Settings {
	// a missing .env is the normal case in containers
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")
	return &Settings{
		ListenAddr:       getEnv("LISTEN_ADDR", ServerListenAddr),
		IsProd:           strings.EqualFold(env, "production") || strings.EqualFold(env, "prod"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		AuthToken:        getEnv("AUTH_TOKEN", ""),
		RateLimitEnabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),

		RedisAddr:     getEnv("REDIS_ADDR", RedisAddr),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		QdrantHost:    getEnv("QDRANT_HOST", QdrantHost),
		QdrantPort:    getEnvAsInt("QDRANT_PORT", QdrantGrpcPort),
		AuditDBPath:   getEnv("AUDIT_DB_PATH", DefaultAuditDBPath),

		StorageURI:   getEnv("AIP_STORAGE_URI", ""),
		HealthRoute:  getEnv("AIP_HEALTH_ROUTE", DefaultHealthRoute),
		PredictRoute: getEnv("AIP_PREDICT_ROUTE", DefaultPredictRoute),
		ModelBackend: getEnv("MODEL_BACKEND", "forest"),
		ModelDir:     getEnv("MODEL_DIR", DefaultModelDir),
		ONNXLibrary:  getEnv("ONNX_RUNTIME_LIB", ""),

		SentimentProvider: getEnv("SENTIMENT_PROVIDER", "bigquery"),
		GCPProject:        getEnv("GCP_PROJECT", getEnv("GOOGLE_CLOUD_PROJECT", "")),
		BigQueryModel:     getEnv("BIGQUERY_MODEL", DefaultBigQueryModel),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", GeminiModelName),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", OpenAIModelName),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),

		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "word2vec"),
		Word2VecPath:      getEnv("WORD2VEC_PATH", ""),
		Word2VecLimit:     getEnvAsInt("WORD2VEC_LIMIT", DefaultWord2VecLimit),
		VectorIndex:       getEnv("VECTOR_INDEX", "memory"),
		TSNEPerplexity:    getEnvAsFloat("TSNE_PERPLEXITY", TSNEPerplexity),
		TSNEIterations:    getEnvAsInt("TSNE_ITERATIONS", TSNEIterations),

		FaceDetector:         getEnv("FACE_DETECTOR", "cloudvision"),
		CelebrityProvider:    getEnv("CELEBRITY_PROVIDER", "vertex"),
		AWSProfile:           getEnv("AWS_PROFILE", DefaultAWSProfile),
		AWSRegion:            getEnv("AWS_REGION", DefaultAWSRegion),
		VertexProject:        getEnv("VERTEX_PROJECT", ""),
		VertexLocation:       getEnv("VERTEX_LOCATION", DefaultVertexRegion),
		VertexEndpoint:       getEnv("VERTEX_ENDPOINT", ""),
		CelebrityMappingPath: getEnv("CELEBRITY_MAPPING_PATH", "idx_to_celebrity_name.json"),
		CelebrityModelDir:    getEnv("CELEBRITY_MODEL_DIR", ""),
	}
}

// AuthDisabled reports whether bearer auth is bypassed
func (s *Settings) AuthDisabled() bool {
	return s.AuthToken == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

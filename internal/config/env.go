package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	SslCertPath string
	Port        string
	CorsOrigins []string
	JWTSecret   string

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	JobRetention      time.Duration
	WorkerConcurrency int

	StorageBackend string // "local" or "s3"
	UploadDir      string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string

	AIAPIKey          string
	UseRemoteEmbedder bool
	EmbedModel        string
	EmbedVersion      string
	EmbedDim          int
	EmbedBatchSize    int
	EmbedConcurrency  int
	EmbedRateLimit    float64
	EmbedClaimLease   time.Duration

	ChunkMaxTokens int
	ChunkOverlap   int

	SearchAlpha       float64
	SearchDefaultTopK int
	SearchMaxTopK     int
	SearchLogging     bool

	LogLevel string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load reads the environment (and an optional .env file) and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		Port:        getEnv("PORT", "8080"),
		CorsOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		JobRetention:      getEnvDuration("JOB_RETENTION", 24*time.Hour),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		UploadDir:      getEnv("UPLOAD_DIR", "./public/uploads"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "rfp-documents"),

		AIAPIKey:          getEnv("GEMINI_API_KEY", ""),
		UseRemoteEmbedder: getEnvBool("USE_REMOTE_EMBEDDER", false),
		EmbedModel:        getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedVersion:      getEnv("EMBED_VERSION", "1.0.0"),
		EmbedDim:          getEnvInt("EMBEDDING_DIM", 384),
		EmbedBatchSize:    getEnvInt("EMBED_BATCH_SIZE", 32),
		EmbedConcurrency:  getEnvInt("EMBED_WORKER_CONCURRENCY", 2),
		EmbedRateLimit:    getEnvFloat("EMBED_RATE_LIMIT", 5),
		EmbedClaimLease:   getEnvDuration("EMBED_CLAIM_LEASE", 10*time.Minute),

		ChunkMaxTokens: getEnvInt("CHUNK_MAX_TOKENS", 500),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 50),

		SearchAlpha:       getEnvFloat("SEARCH_ALPHA", 0.6),
		SearchDefaultTopK: getEnvInt("SEARCH_DEFAULT_TOPK", 10),
		SearchMaxTopK:     getEnvInt("SEARCH_MAX_TOPK", 100),
		SearchLogging:     getEnvBool("SEARCH_ENABLE_LOGGING", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if c.StorageBackend != "local" && c.StorageBackend != "s3" {
		return fmt.Errorf("STORAGE_BACKEND must be local or s3, got %q", c.StorageBackend)
	}
	if c.EmbedDim <= 0 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbedDim)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize)
	}
	if c.EmbedConcurrency <= 0 {
		return fmt.Errorf("EMBED_WORKER_CONCURRENCY must be positive, got %d", c.EmbedConcurrency)
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.WorkerConcurrency)
	}
	if c.ChunkMaxTokens <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxTokens {
		return fmt.Errorf("chunking needs 0 <= CHUNK_OVERLAP < CHUNK_MAX_TOKENS, got %d/%d", c.ChunkOverlap, c.ChunkMaxTokens)
	}
	if c.SearchAlpha < 0 || c.SearchAlpha > 1 {
		return fmt.Errorf("SEARCH_ALPHA must be between 0 and 1, got %v", c.SearchAlpha)
	}
	if c.SearchMaxTopK <= 0 || c.SearchDefaultTopK <= 0 || c.SearchDefaultTopK > c.SearchMaxTopK {
		return fmt.Errorf("SEARCH_DEFAULT_TOPK must be in [1, SEARCH_MAX_TOPK], got %d/%d", c.SearchDefaultTopK, c.SearchMaxTopK)
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("WARN: %s=%q not a number, using default %v", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"goc-notion-sync/db"
	"goc-notion-sync/embedding"
	"goc-notion-sync/pipeline"

	"github.com/joho/godotenv"
)

// Config 애플리케이션 설정 구조체
type Config struct {
	NotionAPIKey string

	Provider         embedding.Provider
	GeminiAPIKey     string
	AWSAccessKey     string
	AWSSecretKey     string
	AWSRegion        string
	EmbeddingModelID string
	Dimension        int
	EmbedRatePerSec  float64

	Backend       db.Backend
	Collection    string
	Metric        db.Metric
	DBPath        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	ChunkSize    int
	ChunkOverlap int

	SyncInterval  time.Duration
	MinSimilarity float64

	LogLevel  slog.Level
	LogFormat string
}

// LoadConfig .env 파일(있으면)과 환경 변수에서 설정을 로드합니다
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("%w: .env 파일 로드 실패: %w", pipeline.ErrConfiguration, err)
		}
	}
	return loadConfig(os.Getenv)
}

// envReader 잘못된 값을 모아 한 번에 보고합니다
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (r *envReader) getEnv(defaultValue string, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(r.getenv(key)); value != "" {
			return value
		}
	}
	return defaultValue
}

func (r *envReader) getEnvInt(key string, defaultValue int) int {
	value := r.getEnv("", key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s는 정수여야 합니다: %q", key, value))
		return defaultValue
	}
	return n
}

func (r *envReader) getEnvFloat(key string, defaultValue float64) float64 {
	value := r.getEnv("", key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s는 숫자여야 합니다: %q", key, value))
		return defaultValue
	}
	return f
}

// getEnvDuration "90s", "1h" 같은 Go duration 또는 초 단위 정수를 받습니다
func (r *envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := r.getEnv("", key)
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s는 기간이어야 합니다: %q", key, value))
		return defaultValue
	}
	return d
}

func (r *envReader) fail(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf(format, args...))
}

func loadConfig(getenv func(string) string) (*Config, error) {
	r := &envReader{getenv: getenv}

	cfg := &Config{
		NotionAPIKey:    r.getEnv("", "NOTION_SECRET", "NOTION_API_KEY"),
		GeminiAPIKey:    r.getEnv("", "GEMINI_API_KEY"),
		AWSAccessKey:    r.getEnv("", "AWS_ACCESS_KEY", "AWS_ACCESS_KEY_ID"),
		AWSSecretKey:    r.getEnv("", "AWS_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"),
		AWSRegion:       r.getEnv("us-east-1", "AWS_REGION"),
		EmbedRatePerSec: r.getEnvFloat("EMBED_RATE_PER_SEC", 5),
		Collection:      r.getEnv("notion_docs", "VECTOR_COLLECTION_NAME"),
		DBPath:          r.getEnv("./my-knowledge.db", "CHROMEM_PATH"),
		DatabaseURL:     r.getEnv("", "DATABASE_URL"),
		MongoURI:        r.getEnv("", "MONGO_URI"),
		MongoDatabase:   r.getEnv(db.DefaultMongoDatabase, "MONGO_DATABASE"),
		ChunkSize:       r.getEnvInt("CHUNK_SIZE", 8000),
		ChunkOverlap:    r.getEnvInt("CHUNK_OVERLAP", 200),
		SyncInterval:    r.getEnvDuration("SYNC_INTERVAL", 0),
		MinSimilarity:   r.getEnvFloat("SEARCH_MIN_SIMILARITY", 0),
		LogFormat:       strings.ToLower(r.getEnv("text", "LOG_FORMAT")),
	}

	if cfg.NotionAPIKey == "" {
		r.fail("NOTION_SECRET이 설정되지 않았습니다")
	}

	cfg.Provider = embedding.Provider(strings.ToLower(r.getEnv(string(embedding.ProviderGemini), "EMBEDDING_PROVIDER")))
	switch cfg.Provider {
	case embedding.ProviderGemini:
		cfg.EmbeddingModelID = r.getEnv(embedding.DefaultGeminiModel, "EMBEDDING_MODEL_ID")
		cfg.Dimension = r.getEnvInt("VECTOR_DIMENSION", 768)
		if cfg.GeminiAPIKey == "" {
			r.fail("GEMINI_API_KEY가 설정되지 않았습니다")
		}
	case embedding.ProviderBedrock:
		cfg.EmbeddingModelID = r.getEnv(embedding.DefaultBedrockModel, "EMBEDDING_MODEL_ID", "BEDROCK_MODEL_ID")
		cfg.Dimension = r.getEnvInt("VECTOR_DIMENSION", 1024)
		if (cfg.AWSAccessKey == "") != (cfg.AWSSecretKey == "") {
			r.fail("AWS_ACCESS_KEY와 AWS_SECRET_KEY는 함께 설정해야 합니다")
		}
	default:
		r.fail("알 수 없는 EMBEDDING_PROVIDER: %q", cfg.Provider)
	}

	backend, err := db.ParseBackend(strings.ToLower(r.getEnv(string(db.BackendChromem), "STORE_BACKEND")))
	if err != nil {
		r.errs = append(r.errs, err)
	}
	cfg.Backend = backend

	metric, err := db.ParseMetric(strings.ToLower(r.getEnv(string(db.MetricCosine), "VECTOR_METRIC")))
	if err != nil {
		r.errs = append(r.errs, err)
	}
	cfg.Metric = metric

	switch cfg.Backend {
	case db.BackendChromem:
		if cfg.Metric != "" && cfg.Metric != db.MetricCosine {
			r.fail("chromem 저장소는 VECTOR_METRIC=cosine만 지원합니다")
		}
	case db.BackendPgvector:
		if cfg.DatabaseURL == "" {
			r.fail("DATABASE_URL이 설정되지 않았습니다")
		}
	case db.BackendMongo:
		if cfg.MongoURI == "" {
			r.fail("MONGO_URI가 설정되지 않았습니다")
		}
	}

	if cfg.Dimension <= 0 {
		r.fail("VECTOR_DIMENSION은 0보다 커야 합니다: %d", cfg.Dimension)
	}
	if cfg.ChunkSize <= 0 {
		r.fail("CHUNK_SIZE는 0보다 커야 합니다: %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		r.fail("CHUNK_OVERLAP은 0 이상 CHUNK_SIZE 미만이어야 합니다: %d", cfg.ChunkOverlap)
	}
	if cfg.SyncInterval < 0 {
		r.fail("SYNC_INTERVAL은 음수일 수 없습니다")
	}

	level, err := parseLogLevel(r.getEnv("info", "LOG_LEVEL"))
	if err != nil {
		r.errs = append(r.errs, err)
	}
	cfg.LogLevel = level
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		r.fail("LOG_FORMAT은 text 또는 json이어야 합니다: %q", cfg.LogFormat)
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", pipeline.ErrConfiguration, errors.Join(r.errs...))
	}
	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("알 수 없는 LOG_LEVEL: %q", s)
	}
	return level, nil
}

// newLogger 설정에 맞는 slog 핸들러를 만듭니다. stdout은 진행 상황 출력과 TUI가 씁니다
func newLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogLevel <= slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// coordinatorOptions 설정을 동기화 옵션으로 옮깁니다
func (c *Config) coordinatorOptions() pipeline.Options {
	return pipeline.Options{
		ChunkSize:      c.ChunkSize,
		ChunkOverlap:   c.ChunkOverlap,
		Collection:     c.Collection,
		EmbeddingModel: c.EmbeddingModelID,
		Dimension:      c.Dimension,
		Metric:         c.Metric,
	}
}

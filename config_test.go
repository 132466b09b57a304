package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"goc-notion-sync/db"
	"goc-notion-sync/embedding"
	"goc-notion-sync/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"NOTION_SECRET":  "secret_x",
		"GEMINI_API_KEY": "gemini-key",
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(envOf(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, embedding.ProviderGemini, cfg.Provider)
	assert.Equal(t, embedding.DefaultGeminiModel, cfg.EmbeddingModelID)
	assert.Equal(t, 768, cfg.Dimension)
	assert.Equal(t, db.BackendChromem, cfg.Backend)
	assert.Equal(t, db.MetricCosine, cfg.Metric)
	assert.Equal(t, "notion_docs", cfg.Collection)
	assert.Equal(t, "./my-knowledge.db", cfg.DBPath)
	assert.Equal(t, 8000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5.0, cfg.EmbedRatePerSec)
	assert.Zero(t, cfg.SyncInterval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	opts := cfg.coordinatorOptions()
	assert.Equal(t, "notion_docs", opts.Collection)
	assert.Equal(t, embedding.DefaultGeminiModel, opts.EmbeddingModel)
}

func TestLoadConfigBedrock(t *testing.T) {
	env := map[string]string{
		"NOTION_API_KEY":     "secret_x",
		"EMBEDDING_PROVIDER": "bedrock",
		"AWS_ACCESS_KEY":     "AKIA",
		"AWS_SECRET_KEY":     "shh",
		"BEDROCK_MODEL_ID":   "amazon.titan-embed-text-v1",
		"VECTOR_DIMENSION":   "1536",
		"STORE_BACKEND":      "pgvector",
		"DATABASE_URL":       "postgres://localhost/notion",
		"VECTOR_METRIC":      "dot_product",
		"SYNC_INTERVAL":      "15m",
		"LOG_LEVEL":          "debug",
		"LOG_FORMAT":         "JSON",
	}

	cfg, err := loadConfig(envOf(env))
	require.NoError(t, err)

	assert.Equal(t, "secret_x", cfg.NotionAPIKey)
	assert.Equal(t, embedding.ProviderBedrock, cfg.Provider)
	assert.Equal(t, "amazon.titan-embed-text-v1", cfg.EmbeddingModelID)
	assert.Equal(t, 1536, cfg.Dimension)
	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, db.BackendPgvector, cfg.Backend)
	assert.Equal(t, db.MetricDotProduct, cfg.Metric)
	assert.Equal(t, 15*time.Minute, cfg.SyncInterval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigBedrockDefaults(t *testing.T) {
	cfg, err := loadConfig(envOf(map[string]string{
		"NOTION_SECRET":      "secret_x",
		"EMBEDDING_PROVIDER": "bedrock",
	}))
	require.NoError(t, err)

	assert.Equal(t, embedding.DefaultBedrockModel, cfg.EmbeddingModelID)
	assert.Equal(t, 1024, cfg.Dimension)
}

func TestLoadConfigSyncIntervalSeconds(t *testing.T) {
	env := baseEnv()
	env["SYNC_INTERVAL"] = "90"

	cfg, err := loadConfig(envOf(env))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.SyncInterval)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
		drop string
	}{
		{name: "missing notion secret", drop: "NOTION_SECRET"},
		{name: "missing gemini key", drop: "GEMINI_API_KEY"},
		{name: "chunk size not a number", set: map[string]string{"CHUNK_SIZE": "big"}},
		{name: "overlap too large", set: map[string]string{"CHUNK_SIZE": "100", "CHUNK_OVERLAP": "100"}},
		{name: "unknown provider", set: map[string]string{"EMBEDDING_PROVIDER": "openai"}},
		{name: "unknown backend", set: map[string]string{"STORE_BACKEND": "sqlite"}},
		{name: "unknown metric", set: map[string]string{"VECTOR_METRIC": "manhattan"}},
		{name: "chromem with euclidean", set: map[string]string{"VECTOR_METRIC": "euclidean"}},
		{name: "pgvector without url", set: map[string]string{"STORE_BACKEND": "pgvector"}},
		{name: "mongo without uri", set: map[string]string{"STORE_BACKEND": "mongo"}},
		{name: "zero dimension", set: map[string]string{"VECTOR_DIMENSION": "0"}},
		{name: "bad interval", set: map[string]string{"SYNC_INTERVAL": "soon"}},
		{name: "bad log level", set: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad log format", set: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "half aws credentials", set: map[string]string{"EMBEDDING_PROVIDER": "bedrock", "AWS_ACCESS_KEY": "AKIA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			delete(env, tt.drop)
			for k, v := range tt.set {
				env[k] = v
			}

			_, err := loadConfig(envOf(env))
			assert.ErrorIs(t, err, pipeline.ErrConfiguration)
		})
	}
}

func TestCheckAll(t *testing.T) {
	ok := func(context.Context) error { return nil }
	boom := errors.New("unreachable")

	require.NoError(t, checkAll(context.Background(), ok, ok))

	err := checkAll(context.Background(), ok, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, pipeline.ErrConnection)
	assert.ErrorIs(t, err, boom)
}

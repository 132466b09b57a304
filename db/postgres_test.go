package db

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"goc-notion-sync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TEST_DATABASE_URL이 있을 때만 실제 pgvector 인스턴스로 실행
func TestPostgresStoreRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, url, slog.Default())
	require.NoError(t, err)
	defer s.Close()

	name := "notion_docs_test"
	require.NoError(t, s.EnsureCollection(ctx, name, 3, MetricCosine))
	_, err = s.pool.Exec(ctx, "TRUNCATE "+s.table)
	require.NoError(t, err)

	edited := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	n, err := s.BatchInsert(ctx, []models.StoredRecord{
		record("p1", 1, edited, 1, 0, 0),
		record("p1", 2, edited, 0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	prior, err := s.FindByPageID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, prior, 2)
	assert.True(t, prior[0].LastEditedTime.Equal(edited))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1-chunk-1", results[0].ChunkID)

	require.NoError(t, s.DeleteByPageID(ctx, "p1"))
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Error(t, s.EnsureCollection(ctx, name, 4, MetricCosine))
}

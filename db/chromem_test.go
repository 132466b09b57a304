package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"goc-notion-sync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, dimension int) *ChromemStore {
	t.Helper()
	s, err := NewChromemStore("")
	require.NoError(t, err)
	require.NoError(t, s.EnsureCollection(context.Background(), "notion_docs", dimension, MetricCosine))
	return s
}

func record(pageID string, index int, edited time.Time, vector ...float32) models.StoredRecord {
	return models.StoredRecord{
		ChunkID:        models.ChunkID(pageID, index),
		PageID:         pageID,
		ChunkIndex:     index,
		ChunkText:      "chunk text",
		Title:          "Title " + pageID,
		URL:            "https://www.notion.so/" + pageID,
		LastEditedTime: edited,
		Properties:     map[string]any{"Status": "Done"},
		ContentBlocks:  []models.ContentBlock{{ID: "b1", Type: models.BlockParagraph, Content: "chunk text"}},
		Vector:         vector,
	}
}

func TestChromemInsertFindDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)
	edited := time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)

	n, err := s.BatchInsert(ctx, []models.StoredRecord{
		record("p1", 1, edited, 1, 0, 0),
		record("p1", 2, edited, 0, 1, 0),
		record("p2", 1, edited, 0, 0, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	prior, err := s.FindByPageID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, prior, 2)
	assert.Equal(t, "p1-chunk-1", prior[0].ChunkID)
	assert.Equal(t, "p1-chunk-2", prior[1].ChunkID)
	assert.True(t, prior[0].LastEditedTime.Equal(edited))

	require.NoError(t, s.DeleteByPageID(ctx, "p1"))

	prior, err = s.FindByPageID(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, prior)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChromemFindUnknownPage(t *testing.T) {
	s := newTestStore(t, 3)

	prior, err := s.FindByPageID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, prior)
}

func TestChromemBatchInsertRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)
	edited := time.Now()

	tests := []struct {
		name    string
		records []models.StoredRecord
	}{
		{"missing vector", []models.StoredRecord{record("p1", 1, edited, 1, 0, 0), record("p1", 2, edited)}},
		{"wrong dimension", []models.StoredRecord{record("p1", 1, edited, 1, 0, 0), record("p1", 2, edited, 1, 0)}},
		{"missing id", []models.StoredRecord{{PageID: "p1", Vector: []float32{1, 0, 0}}}},
		{"duplicate id", []models.StoredRecord{record("p1", 1, edited, 1, 0, 0), record("p1", 1, edited, 0, 1, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := s.BatchInsert(ctx, tt.records)
			assert.ErrorIs(t, err, ErrInvalidRecord)
			assert.Zero(t, n)

			count, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestChromemEnsureCollection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	_, err := s.BatchInsert(ctx, []models.StoredRecord{record("p1", 1, time.Now(), 1, 0, 0)})
	require.NoError(t, err)

	// 같은 설정으로 다시 호출해도 문제없음
	require.NoError(t, s.EnsureCollection(ctx, "notion_docs", 3, MetricCosine))
	assert.Error(t, s.EnsureCollection(ctx, "notion_docs", 4, MetricCosine))
	assert.Error(t, s.EnsureCollection(ctx, "other", 3, MetricEuclidean))
}

func TestChromemSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)
	edited := time.Now()

	results, err := s.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = s.BatchInsert(ctx, []models.StoredRecord{
		record("p1", 1, edited, 1, 0, 0),
		record("p2", 1, edited, 0, 1, 0),
	})
	require.NoError(t, err)

	results, err = s.Search(ctx, []float32{0.9, 0.1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].PageID)
	assert.Equal(t, 1, results[0].ChunkIndex)
	assert.Equal(t, "Title p1", results[0].Title)
	assert.Equal(t, "chunk text", results[0].Content)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestChromemRequiresCollection(t *testing.T) {
	s, err := NewChromemStore("")
	require.NoError(t, err)

	_, err = s.FindByPageID(context.Background(), "p1")
	assert.Error(t, err)
}

func TestChromemFindByPageIDReturnsLookupErrors(t *testing.T) {
	s := newTestStore(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prior, err := s.FindByPageID(ctx, "p1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, prior)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(errors.New("document with ID 'p1-chunk-1' not found")))
	assert.False(t, isNotFound(errors.New("document ID is empty")))
	assert.False(t, isNotFound(nil))
}

// Package search 동기화된 컬렉션에 대한 의미 검색을 제공합니다.
package search

import (
	"context"
	"fmt"
	"strings"

	"goc-notion-sync/models"
)

// DefaultLimit 한 번에 보여줄 검색 결과 수
const DefaultLimit = 5

// Embedder 질의를 벡터로 바꿉니다. 문서 임베딩과 같은 모델이어야 합니다
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store 벡터 유사도 검색
type Store interface {
	Search(ctx context.Context, vector []float32, limit int) ([]models.SearchResult, error)
}

// Searcher 질의를 임베딩해서 가장 가까운 청크를 찾습니다
type Searcher struct {
	embedder      Embedder
	store         Store
	limit         int
	minSimilarity float32
}

// NewSearcher 새로운 검색기를 생성합니다. minSimilarity 미만인 결과는 버립니다
func NewSearcher(embedder Embedder, store Store, limit int, minSimilarity float32) *Searcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Searcher{
		embedder:      embedder,
		store:         store,
		limit:         limit,
		minSimilarity: minSimilarity,
	}
}

// Search 질문과 가장 유사한 청크를 유사도 순으로 반환합니다
func (s *Searcher) Search(ctx context.Context, question string) ([]models.SearchResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("검색어가 비어있습니다")
	}

	queryVector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("질문 임베딩 실패: %w", err)
	}

	results, err := s.store.Search(ctx, queryVector, s.limit)
	if err != nil {
		return nil, fmt.Errorf("문서 검색 실패: %w", err)
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Similarity >= s.minSimilarity {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

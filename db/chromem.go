package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"goc-notion-sync/models"

	"github.com/philippgille/chromem-go"
)

// ChromemStore chromem-go 기반 임베디드 벡터 저장소
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
}

// NewChromemStore 새로운 벡터 DB 저장소를 생성합니다. dbPath가 비어있으면 메모리 DB를 씁니다
func NewChromemStore(dbPath string) (*ChromemStore, error) {
	if dbPath == "" {
		return &ChromemStore{db: chromem.NewDB()}, nil
	}

	// PersistentDB 생성 (기존 DB가 있으면 로드, 없으면 생성)
	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("DB 초기화 실패: %w", err)
	}
	return &ChromemStore{db: db}, nil
}

// EnsureCollection chromem-go는 cosine 유사도만 계산합니다
func (s *ChromemStore) EnsureCollection(ctx context.Context, name string, dimension int, metric Metric) error {
	if metric != MetricCosine {
		return fmt.Errorf("chromem 저장소는 cosine만 지원합니다: %s", metric)
	}
	if dimension <= 0 {
		return fmt.Errorf("잘못된 벡터 차원: %d", dimension)
	}

	metadata := map[string]string{
		"hnsw:space": "cosine",
		"dimension":  strconv.Itoa(dimension),
	}
	collection, err := s.db.GetOrCreateCollection(name, metadata, nil)
	if err != nil {
		return fmt.Errorf("Collection 생성 실패: %w", err)
	}

	// 기존 문서가 있으면 단위 벡터로 질의해 차원을 확인
	if collection.Count() > 0 {
		unit := make([]float32, dimension)
		unit[0] = 1
		if _, err := collection.QueryEmbedding(ctx, unit, 1, nil, nil); err != nil {
			return fmt.Errorf("기존 Collection %q의 차원이 %d와 호환되지 않습니다: %w", name, dimension, err)
		}
	}

	s.collection = collection
	s.dimension = dimension
	return nil
}

func (s *ChromemStore) ready() error {
	if s.collection == nil {
		return fmt.Errorf("Collection이 준비되지 않았습니다")
	}
	return nil
}

// FindByPageID chunk ID가 결정적이므로 1번부터 없는 번호가 나올 때까지 조회합니다
func (s *ChromemStore) FindByPageID(ctx context.Context, pageID string) ([]models.PriorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var prior []models.PriorRecord
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := models.ChunkID(pageID, i)
		doc, err := s.collection.GetByID(ctx, id)
		if isNotFound(err) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("문서 조회 실패: %w", err)
		}

		record, err := priorFromMetadata(doc.ID, doc.Metadata)
		if err != nil {
			return nil, fmt.Errorf("문서 조회 실패: %w", err)
		}
		prior = append(prior, record)
	}
	return prior, nil
}

// isNotFound chromem-go는 없는 ID에 대해 별도 sentinel 없이 "not found" 에러만 돌려줌
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// DeleteByPageID 페이지의 모든 청크를 삭제합니다
func (s *ChromemStore) DeleteByPageID(ctx context.Context, pageID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.collection.Delete(ctx, map[string]string{fieldPageID: pageID}, nil); err != nil {
		return fmt.Errorf("문서 삭제 실패: %w", err)
	}
	return nil
}

// BatchInsert 여러 레코드를 배치로 추가합니다
func (s *ChromemStore) BatchInsert(ctx context.Context, records []models.StoredRecord) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateRecords(records, s.dimension); err != nil {
		return 0, err
	}

	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	metadatas := make([]map[string]string, len(records))
	contents := make([]string, len(records))
	for i, r := range records {
		md, err := toMetadata(r)
		if err != nil {
			return 0, err
		}
		ids[i] = r.ChunkID
		vectors[i] = r.Vector
		metadatas[i] = md
		contents[i] = r.ChunkText
	}

	if err := s.collection.Add(ctx, ids, vectors, metadatas, contents); err != nil {
		return 0, fmt.Errorf("문서 추가 실패: %w", err)
	}
	return len(records), nil
}

// Search 유사한 청크를 검색합니다 (Top K)
func (s *ChromemStore) Search(ctx context.Context, vector []float32, limit int) ([]models.SearchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("쿼리 벡터가 비어있습니다")
	}

	// chromem-go는 nResults가 문서 수보다 크면 에러를 반환함
	n := min(limit, s.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("검색 실패: %w", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, searchResultFromMetadata(r.ID, r.Content, r.Similarity, r.Metadata))
	}
	return out, nil
}

// Count 저장된 청크의 개수를 반환합니다
func (s *ChromemStore) Count(_ context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.collection.Count(), nil
}

// Close PersistentDB는 추가/삭제 시점에 디스크에 기록하므로 닫을 것이 없습니다
func (s *ChromemStore) Close() error {
	return nil
}

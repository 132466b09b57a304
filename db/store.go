// Package db 청크 레코드를 저장하고 조회하는 벡터 저장소 게이트웨이를 제공합니다.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"goc-notion-sync/models"
)

// Store 동기화 코어와 검색이 사용하는 벡터 저장소 계약
type Store interface {
	// EnsureCollection 컬렉션이 없으면 만들고, 있으면 차원 호환성을 확인합니다
	EnsureCollection(ctx context.Context, name string, dimension int, metric Metric) error
	FindByPageID(ctx context.Context, pageID string) ([]models.PriorRecord, error)
	DeleteByPageID(ctx context.Context, pageID string) error
	// BatchInsert 모든 레코드를 먼저 검증하고, 하나라도 잘못되면 아무것도 쓰지 않습니다
	BatchInsert(ctx context.Context, records []models.StoredRecord) (int, error)
	Search(ctx context.Context, vector []float32, limit int) ([]models.SearchResult, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Backend 저장소 구현 종류
type Backend string

const (
	BackendChromem  Backend = "chromem"
	BackendPgvector Backend = "pgvector"
	BackendMongo    Backend = "mongo"
)

// ParseBackend 설정 문자열을 Backend로 변환합니다
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(s); b {
	case BackendChromem, BackendPgvector, BackendMongo:
		return b, nil
	}
	return "", fmt.Errorf("알 수 없는 저장소 백엔드: %q", s)
}

// Metric 벡터 거리 계산 방식
type Metric string

const (
	MetricCosine     Metric = "cosine"
	MetricDotProduct Metric = "dot_product"
	MetricEuclidean  Metric = "euclidean"
)

// ParseMetric 설정 문자열을 Metric으로 변환합니다
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricCosine, MetricDotProduct, MetricEuclidean:
		return m, nil
	}
	return "", fmt.Errorf("알 수 없는 거리 계산 방식: %q", s)
}

// Options 저장소 연결 설정
type Options struct {
	Backend       Backend
	ChromemPath   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	Logger        *slog.Logger
}

// Open 설정된 백엔드에 연결합니다. 연결 확인(ping)까지 끝난 저장소를 반환합니다
func Open(ctx context.Context, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case BackendChromem, "":
		store, err = NewChromemStore(opts.ChromemPath)
	case BackendPgvector:
		store, err = NewPostgresStore(ctx, opts.DatabaseURL, logger)
	case BackendMongo:
		store, err = NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase, logger)
	default:
		return nil, fmt.Errorf("알 수 없는 저장소 백엔드: %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Exists DB 파일이 존재하는지 확인합니다
func Exists(dbPath string) bool {
	_, err := os.Stat(dbPath)
	return err == nil
}

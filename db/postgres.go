package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"goc-notion-sync/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore pgvector 확장을 사용하는 Postgres 저장소. 컬렉션 하나가 테이블 하나입니다
type PostgresStore struct {
	pool      *pgxpool.Pool
	logger    *slog.Logger
	name      string
	table     string
	dimension int
	metric    Metric
}

// NewPostgresStore 커넥션 풀을 만들고 연결을 확인합니다
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL이 설정되지 않았습니다")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Postgres 풀 생성 실패: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Postgres 연결 실패: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger.With("component", "pgvector")}, nil
}

// opClass HNSW 인덱스 연산자 클래스
func (m Metric) opClass() string {
	switch m {
	case MetricDotProduct:
		return "vector_ip_ops"
	case MetricEuclidean:
		return "vector_l2_ops"
	default:
		return "vector_cosine_ops"
	}
}

// distanceOperator ORDER BY에 쓰는 거리 연산자와 거리 → 유사도 변환식
func (m Metric) distanceOperator() (op, similarity string) {
	switch m {
	case MetricDotProduct:
		// <#>은 음의 내적을 반환
		return "<#>", "-(embedding <#> $1)"
	case MetricEuclidean:
		return "<->", "1 / (1 + (embedding <-> $1))"
	default:
		return "<=>", "1 - (embedding <=> $1)"
	}
}

// EnsureCollection 확장, 테이블, 인덱스를 만들고 기존 테이블의 벡터 차원을 확인합니다
func (s *PostgresStore) EnsureCollection(ctx context.Context, name string, dimension int, metric Metric) error {
	if dimension <= 0 {
		return fmt.Errorf("잘못된 벡터 차원: %d", dimension)
	}

	table := pgx.Identifier{name}.Sanitize()
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			chunk_id          TEXT PRIMARY KEY,
			page_id           TEXT NOT NULL,
			chunk_index       INTEGER NOT NULL,
			chunk_text        TEXT NOT NULL,
			title             TEXT NOT NULL DEFAULT '',
			url               TEXT NOT NULL DEFAULT '',
			created_time      TIMESTAMPTZ,
			last_edited_time  TIMESTAMPTZ NOT NULL,
			archived          BOOLEAN NOT NULL DEFAULT FALSE,
			properties        JSONB,
			content_text      TEXT NOT NULL DEFAULT '',
			content_blocks    JSONB,
			embedding_model   TEXT NOT NULL DEFAULT '',
			last_updated_time TIMESTAMPTZ NOT NULL,
			sync_run_id       TEXT NOT NULL DEFAULT '',
			embedding         vector(%d) NOT NULL
		)`, table, dimension),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("테이블 %s 준비 실패: %w", name, err)
		}
	}

	// pgvector는 vector(N)의 N을 atttypmod에 그대로 저장함
	var existing int
	err := s.pool.QueryRow(ctx,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'`,
		table,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("벡터 컬럼 조회 실패: %w", err)
	}
	if existing > 0 && existing != dimension {
		return fmt.Errorf("기존 테이블 %s의 벡터 차원 %d가 설정 %d와 다릅니다", name, existing, dimension)
	}

	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (page_id)`,
			pgx.Identifier{name + "_page_id_idx"}.Sanitize(), table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding %s)`,
			pgx.Identifier{name + "_embedding_idx"}.Sanitize(), table, metric.opClass()),
	}
	for _, stmt := range indexes {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("인덱스 생성 실패: %w", err)
		}
	}

	s.name = name
	s.table = table
	s.dimension = dimension
	s.metric = metric
	s.logger.Debug("테이블 준비 완료", "table", name, "dimension", dimension, "metric", metric)
	return nil
}

func (s *PostgresStore) ready() error {
	if s.table == "" {
		return fmt.Errorf("테이블이 준비되지 않았습니다")
	}
	return nil
}

// FindByPageID 페이지의 기존 청크 ID와 수정 시각을 조회합니다
func (s *PostgresStore) FindByPageID(ctx context.Context, pageID string) ([]models.PriorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT chunk_id, last_edited_time FROM %s WHERE page_id = $1 ORDER BY chunk_index`, s.table),
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("문서 조회 실패: %w", err)
	}
	defer rows.Close()

	var prior []models.PriorRecord
	for rows.Next() {
		var r models.PriorRecord
		if err := rows.Scan(&r.ChunkID, &r.LastEditedTime); err != nil {
			return nil, fmt.Errorf("문서 조회 실패: %w", err)
		}
		prior = append(prior, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("문서 조회 실패: %w", err)
	}
	return prior, nil
}

// DeleteByPageID 페이지의 모든 청크를 삭제합니다
func (s *PostgresStore) DeleteByPageID(ctx context.Context, pageID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE page_id = $1`, s.table), pageID); err != nil {
		return fmt.Errorf("문서 삭제 실패: %w", err)
	}
	return nil
}

// BatchInsert 레코드 전체를 하나의 트랜잭션으로 씁니다
func (s *PostgresStore) BatchInsert(ctx context.Context, records []models.StoredRecord) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateRecords(records, s.dimension); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`INSERT INTO %s (
		chunk_id, page_id, chunk_index, chunk_text, title, url, created_time, last_edited_time,
		archived, properties, content_text, content_blocks, embedding_model, last_updated_time,
		sync_run_id, embedding
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (chunk_id) DO UPDATE SET
		page_id = EXCLUDED.page_id,
		chunk_index = EXCLUDED.chunk_index,
		chunk_text = EXCLUDED.chunk_text,
		title = EXCLUDED.title,
		url = EXCLUDED.url,
		created_time = EXCLUDED.created_time,
		last_edited_time = EXCLUDED.last_edited_time,
		archived = EXCLUDED.archived,
		properties = EXCLUDED.properties,
		content_text = EXCLUDED.content_text,
		content_blocks = EXCLUDED.content_blocks,
		embedding_model = EXCLUDED.embedding_model,
		last_updated_time = EXCLUDED.last_updated_time,
		sync_run_id = EXCLUDED.sync_run_id,
		embedding = EXCLUDED.embedding`, s.table)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("트랜잭션 시작 실패: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Warn("롤백 실패", "error", err)
		}
	}()

	for _, r := range records {
		properties, err := json.Marshal(r.Properties)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: properties 직렬화 실패: %w", ErrInvalidRecord, r.ChunkID, err)
		}
		blocks, err := json.Marshal(r.ContentBlocks)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: content_blocks 직렬화 실패: %w", ErrInvalidRecord, r.ChunkID, err)
		}

		_, err = tx.Exec(ctx, query,
			r.ChunkID, r.PageID, r.ChunkIndex, r.ChunkText, r.Title, r.URL, nullTime(r.CreatedTime),
			r.LastEditedTime, r.Archived, string(properties), r.ContentText, string(blocks),
			r.EmbeddingModel, r.LastUpdatedTime, r.SyncRunID, pgvector.NewVector(r.Vector),
		)
		if err != nil {
			return 0, fmt.Errorf("문서 %s 추가 실패: %w", r.ChunkID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("트랜잭션 커밋 실패: %w", err)
	}
	return len(records), nil
}

// Search 설정된 거리 연산자로 가장 가까운 청크를 검색합니다
func (s *PostgresStore) Search(ctx context.Context, vector []float32, limit int) ([]models.SearchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("쿼리 벡터가 비어있습니다")
	}

	op, similarity := s.metric.distanceOperator()
	query := fmt.Sprintf(`SELECT chunk_id, page_id, chunk_index, title, url, chunk_text, %s AS similarity
		FROM %s ORDER BY embedding %s $1 LIMIT $2`, similarity, s.table, op)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("검색 실패: %w", err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		var sim float64
		if err := rows.Scan(&r.ChunkID, &r.PageID, &r.ChunkIndex, &r.Title, &r.URL, &r.Content, &sim); err != nil {
			return nil, fmt.Errorf("검색 결과 읽기 실패: %w", err)
		}
		r.Similarity = float32(sim)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("검색 실패: %w", err)
	}
	return results, nil
}

// Count 저장된 청크의 개수를 반환합니다
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("문서 개수 조회 실패: %w", err)
	}
	return n, nil
}

// Close 커넥션 풀을 닫습니다
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Package pipeline Notion 페이지를 청크 단위 임베딩으로 바꿔 벡터 저장소에 증분 동기화합니다.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"goc-notion-sync/chunker"
	"goc-notion-sync/db"
	"goc-notion-sync/models"

	"github.com/google/uuid"
)

// Source 페이지 목록과 본문을 제공하는 쪽 (notion.Loader)
type Source interface {
	ListPages(ctx context.Context) ([]models.Page, error)
	PageContent(ctx context.Context, pageID string) (models.Content, error)
}

// Store 코어가 쓰는 저장소 연산
type Store interface {
	EnsureCollection(ctx context.Context, name string, dimension int, metric db.Metric) error
	FindByPageID(ctx context.Context, pageID string) ([]models.PriorRecord, error)
	DeleteByPageID(ctx context.Context, pageID string) error
	BatchInsert(ctx context.Context, records []models.StoredRecord) (int, error)
}

// Embedder 청크 텍스트를 벡터로 바꿉니다
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options 동기화 실행 설정
type Options struct {
	ChunkSize      int
	ChunkOverlap   int
	Collection     string
	EmbeddingModel string
	Dimension      int
	Metric         db.Metric
}

// Coordinator 페이지마다 추출, 변경 감지, 청크 분할, 임베딩, 쓰기를 차례로 수행합니다
type Coordinator struct {
	source   Source
	store    Store
	embedder Embedder
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// New 옵션을 검증하고 코디네이터를 만듭니다
func New(source Source, store Store, embedder Embedder, opts Options, logger *slog.Logger) (*Coordinator, error) {
	if opts.ChunkSize <= 0 || opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		return nil, fmt.Errorf("%w: 청크 크기 %d, 겹침 %d", ErrConfiguration, opts.ChunkSize, opts.ChunkOverlap)
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("%w: 컬렉션 이름이 비어있습니다", ErrConfiguration)
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("%w: 잘못된 벡터 차원 %d", ErrConfiguration, opts.Dimension)
	}
	if opts.Metric == "" {
		opts.Metric = db.MetricCosine
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		source:   source,
		store:    store,
		embedder: embedder,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run 동기화를 한 번 실행합니다. 페이지 실패는 실행을 멈추지 않고 Stats.Failures에 남습니다.
// 컬렉션 준비나 페이지 목록 조회에 실패하면 ErrConnection을, ctx가 취소되면
// 그때까지의 통계와 함께 ctx 에러를 반환합니다
func (c *Coordinator) Run(ctx context.Context) (*Stats, error) {
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	stats := &Stats{RunID: runID, StartedAt: c.now()}
	defer func() { stats.FinishedAt = c.now() }()

	if err := c.store.EnsureCollection(ctx, c.opts.Collection, c.opts.Dimension, c.opts.Metric); err != nil {
		return stats, fmt.Errorf("%w: 컬렉션 준비 실패: %w", ErrConnection, err)
	}

	pages, err := c.source.ListPages(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: 페이지 목록 조회 실패: %w", ErrConnection, err)
	}
	stats.Found = len(pages)
	logger.Info("동기화 시작", "pages", len(pages), "collection", c.opts.Collection)

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			logger.Warn("동기화 중단", "processed", i, "error", err)
			return stats, err
		}

		pageLogger := logger.With("page_id", page.ID)
		outcome, chunks, err := c.syncPage(ctx, pageLogger, runID, page)
		if err != nil {
			// 취소로 중간에 끊긴 페이지는 실패로 세지 않음
			if ctxErr := ctx.Err(); ctxErr != nil {
				logger.Warn("동기화 중단", "processed", i, "error", ctxErr)
				return stats, ctxErr
			}

			state := StateFailed
			var pageErr *PageError
			if errors.As(err, &pageErr) {
				state = pageErr.State
			}
			stats.fail(page.ID, page.Title, state, err)
			pageLogger.Error("페이지 처리 실패", "title", page.Title, "state", state, "error", err)
			continue
		}

		stats.record(outcome)
		stats.Chunks += chunks
		pageLogger.Info("페이지 처리 완료", "title", page.Title, "state", StateDone, "outcome", outcome, "chunks", chunks)
	}

	logger.Info("동기화 완료",
		"found", stats.Found,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"no_content", stats.NoContent,
		"failed", stats.Failed,
	)
	return stats, nil
}

// syncPage 페이지 하나를 끝까지 처리합니다. 반환값은 결과와 쓴 청크 수입니다
func (c *Coordinator) syncPage(ctx context.Context, logger *slog.Logger, runID string, page models.Page) (Outcome, int, error) {
	fail := func(state State, kind error, err error) (Outcome, int, error) {
		return "", 0, &PageError{PageID: page.ID, State: state, Err: fmt.Errorf("%w: %w", kind, err)}
	}

	content, err := c.source.PageContent(ctx, page.ID)
	if err != nil {
		return fail(StateFetched, ErrExtraction, err)
	}
	if strings.TrimSpace(content.Text) == "" {
		logger.Debug("본문이 없어 건너뜁니다")
		return OutcomeNoContent, 0, nil
	}

	prior, err := c.store.FindByPageID(ctx, page.ID)
	if err != nil {
		return fail(StateExtracted, ErrStoreRead, err)
	}

	class := Classify(page.LastEditedTime, prior)
	state := classifiedState(class)
	logger.Debug("변경 감지", "state", state, "prior_chunks", len(prior))
	if class == PageUnchanged {
		return OutcomeSkipped, 0, nil
	}

	chunks, err := chunker.Chunks(page.ID, content.Text, c.opts.ChunkSize, c.opts.ChunkOverlap)
	if err != nil {
		return fail(state, ErrConfiguration, err)
	}
	state = StateChunked

	// 모든 청크의 임베딩이 끝나기 전에는 저장소를 건드리지 않음
	updatedAt := c.now().UTC()
	records := make([]models.StoredRecord, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := c.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fail(state, ErrEmbedding, fmt.Errorf("청크 %d/%d: %w", chunk.Index, len(chunks), err))
		}
		records = append(records, c.newRecord(runID, page, content, chunk, vector, updatedAt))
	}
	state = StateEmbedded

	if class == PageChanged {
		if err := c.store.DeleteByPageID(ctx, page.ID); err != nil {
			return fail(state, ErrStoreWrite, err)
		}
	}

	written, err := c.store.BatchInsert(ctx, records)
	if err != nil {
		// 일부만 쓰인 청크가 남으면 다음 실행에서 UNCHANGED로 분류되므로 지워 둠
		if cleanupErr := c.store.DeleteByPageID(context.WithoutCancel(ctx), page.ID); cleanupErr != nil {
			logger.Warn("부분 기록 정리 실패", "error", cleanupErr)
		}
		return fail(state, ErrStoreWrite, err)
	}
	logger.Debug("저장 완료", "state", StateWritten, "records", written)

	if class == PageChanged {
		return OutcomeUpdated, written, nil
	}
	return OutcomeInserted, written, nil
}

func (c *Coordinator) newRecord(runID string, page models.Page, content models.Content, chunk models.Chunk, vector []float32, updatedAt time.Time) models.StoredRecord {
	return models.StoredRecord{
		ChunkID:         chunk.ID(),
		PageID:          page.ID,
		ChunkIndex:      chunk.Index,
		ChunkText:       chunk.Text,
		Title:           page.Title,
		URL:             page.URL,
		CreatedTime:     page.CreatedTime,
		LastEditedTime:  page.LastEditedTime,
		Archived:        page.Archived,
		Properties:      page.Properties,
		ContentText:     content.Text,
		ContentBlocks:   content.Blocks,
		EmbeddingModel:  c.opts.EmbeddingModel,
		LastUpdatedTime: updatedAt,
		SyncRunID:       runID,
		Vector:          vector,
	}
}

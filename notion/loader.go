package notion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"goc-notion-sync/models"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"
)

const (
	pageSize       = 100
	maxDepth       = 20
	rateLimitDelay = 350 * time.Millisecond
)

// searcher notionapi.SearchService 중 로더가 쓰는 부분
type searcher interface {
	Do(ctx context.Context, req *notionapi.SearchRequest) (*notionapi.SearchResponse, error)
}

// blockLister notionapi.BlockService 중 로더가 쓰는 부분
type blockLister interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

// Loader Notion API를 사용하여 페이지와 본문을 가져오는 구조체
type Loader struct {
	search  searcher
	blocks  blockLister
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewLoader 새로운 Notion 로더를 생성합니다
func NewLoader(apiKey string, logger *slog.Logger) *Loader {
	client := notionapi.NewClient(notionapi.Token(apiKey))
	return newLoader(client.Search, client.Block, rate.NewLimiter(rate.Every(rateLimitDelay), 1), logger)
}

func newLoader(s searcher, b blockLister, limiter *rate.Limiter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		search:  s,
		blocks:  b,
		limiter: limiter,
		logger:  logger.With("component", "notion"),
	}
}

// Ping 토큰으로 API에 접근할 수 있는지 확인합니다
func (l *Loader) Ping(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := l.search.Do(ctx, &notionapi.SearchRequest{PageSize: 1})
	if err != nil {
		return fmt.Errorf("Notion API 연결 실패: %w", err)
	}
	return nil
}

// ListPages Search API로 접근 가능한 모든 페이지를 응답 순서대로 가져옵니다
func (l *Loader) ListPages(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	var cursor notionapi.Cursor

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req := &notionapi.SearchRequest{
			Filter: notionapi.SearchFilter{
				Value:    "page",
				Property: "object",
			},
			StartCursor: cursor,
			PageSize:    pageSize,
		}

		resp, err := l.search.Do(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("페이지 검색 실패: %w", err)
		}

		for _, obj := range resp.Results {
			if obj.GetObject() != notionapi.ObjectTypePage {
				continue
			}
			if page, ok := obj.(*notionapi.Page); ok {
				pages = append(pages, toPage(*page))
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return pages, nil
}

// PageContent 페이지 블록 트리를 가져와 본문을 추출합니다
func (l *Loader) PageContent(ctx context.Context, pageID string) (models.Content, error) {
	blocks, err := l.FetchBlocks(ctx, pageID)
	if err != nil {
		return models.Content{}, err
	}
	return Extract(blocks)
}

// FetchBlocks 페이지의 모든 블록을 깊이 우선으로 평탄화하여 문서 순서대로 반환합니다
func (l *Loader) FetchBlocks(ctx context.Context, pageID string) ([]notionapi.Block, error) {
	var blocks []notionapi.Block
	if err := l.fetchBlocksRecursive(ctx, notionapi.BlockID(pageID), &blocks, 0); err != nil {
		return nil, fmt.Errorf("페이지 %s 블록 조회 실패: %w", pageID, err)
	}
	return blocks, nil
}

// fetchBlocksRecursive 블록을 재귀적으로 가져옵니다
func (l *Loader) fetchBlocksRecursive(ctx context.Context, blockID notionapi.BlockID, out *[]notionapi.Block, depth int) error {
	// 최대 깊이 제한 (무한 재귀 방지)
	if depth > maxDepth {
		l.logger.Warn("최대 블록 깊이 초과, 하위 블록을 건너뜁니다", "block_id", blockID)
		return nil
	}

	var cursor notionapi.Cursor
	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := l.blocks.GetChildren(ctx, blockID, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return err
		}

		for _, block := range resp.Results {
			*out = append(*out, block)
			if block == nil || !block.GetHasChildren() {
				continue
			}

			// 하위 페이지나 데이터베이스는 다른 페이지이므로 재귀하지 않음
			switch block.(type) {
			case *notionapi.ChildPageBlock, *notionapi.ChildDatabaseBlock:
				continue
			}

			if err := l.fetchBlocksRecursive(ctx, block.GetID(), out, depth+1); err != nil {
				return err
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

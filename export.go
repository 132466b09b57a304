package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"goc-notion-sync/models"
	"goc-notion-sync/pipeline"
)

// exportedPage 내보내기 파일의 페이지 항목
type exportedPage struct {
	models.Page
	models.Content
	Error string `json:"error,omitempty"`
}

// exportPages 모든 페이지를 속성, 본문 텍스트, 블록과 함께 JSON 배열로 씁니다.
// 본문을 가져오지 못한 페이지는 error 필드와 함께 남깁니다
func exportPages(ctx context.Context, source pipeline.Source, w io.Writer, logger *slog.Logger) (int, error) {
	pages, err := source.ListPages(ctx)
	if err != nil {
		return 0, fmt.Errorf("페이지 목록 조회 실패: %w", err)
	}

	out := make([]exportedPage, 0, len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Printf("📄 %d/%d - %s\n", i+1, len(pages), page.Title)

		entry := exportedPage{Page: page}
		content, err := source.PageContent(ctx, page.ID)
		if err != nil {
			logger.Warn("본문 추출 실패", "page_id", page.ID, "error", err)
			entry.Error = err.Error()
		} else {
			entry.Content = content
		}
		out = append(out, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return 0, fmt.Errorf("JSON 인코딩 실패: %w", err)
	}
	return len(out), nil
}

func exportToFile(ctx context.Context, source pipeline.Source, path string, logger *slog.Logger) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("파일 생성 실패: %w", err)
	}

	n, err := exportPages(ctx, source, f, logger)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("파일 닫기 실패: %w", closeErr)
	}
	return n, err
}

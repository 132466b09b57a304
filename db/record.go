package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"goc-notion-sync/models"
)

// ErrInvalidRecord 배치에 잘못된 레코드가 있을 때 반환됩니다
var ErrInvalidRecord = errors.New("잘못된 레코드")

// 메타데이터 키 (chromem 메타데이터와 SQL/Mongo 필드 이름을 공유)
const (
	fieldPageID          = "page_id"
	fieldChunkIndex      = "chunk_index"
	fieldChunkText       = "chunk_text"
	fieldTitle           = "title"
	fieldURL             = "url"
	fieldCreatedTime     = "created_time"
	fieldLastEditedTime  = "last_edited_time"
	fieldArchived        = "archived"
	fieldProperties      = "properties"
	fieldContentText     = "content_text"
	fieldContentBlocks   = "content_blocks"
	fieldEmbeddingModel  = "embedding_model"
	fieldLastUpdatedTime = "last_updated_time"
	fieldSyncRunID       = "sync_run_id"
)

// validateRecords 배치 전체를 검증합니다. dimension이 0이면 차원 검사를 건너뜁니다
func validateRecords(records []models.StoredRecord, dimension int) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if r.ChunkID == "" {
			return fmt.Errorf("%w: %d번째 레코드에 chunk_id가 없습니다", ErrInvalidRecord, i)
		}
		if r.PageID == "" {
			return fmt.Errorf("%w: %s: page_id가 없습니다", ErrInvalidRecord, r.ChunkID)
		}
		if len(r.Vector) == 0 {
			return fmt.Errorf("%w: %s: 임베딩 벡터가 없습니다", ErrInvalidRecord, r.ChunkID)
		}
		if dimension > 0 && len(r.Vector) != dimension {
			return fmt.Errorf("%w: %s: 벡터 차원 %d, 컬렉션 차원 %d", ErrInvalidRecord, r.ChunkID, len(r.Vector), dimension)
		}
		if _, dup := seen[r.ChunkID]; dup {
			return fmt.Errorf("%w: 중복된 chunk_id %s", ErrInvalidRecord, r.ChunkID)
		}
		seen[r.ChunkID] = struct{}{}
	}
	return nil
}

// toMetadata chromem-go는 map[string]string 메타데이터만 지원하므로 구조화된 필드는 JSON으로 저장합니다
func toMetadata(r models.StoredRecord) (map[string]string, error) {
	properties, err := json.Marshal(r.Properties)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: properties 직렬화 실패: %w", ErrInvalidRecord, r.ChunkID, err)
	}
	blocks, err := json.Marshal(r.ContentBlocks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: content_blocks 직렬화 실패: %w", ErrInvalidRecord, r.ChunkID, err)
	}

	return map[string]string{
		fieldPageID:          r.PageID,
		fieldChunkIndex:      strconv.Itoa(r.ChunkIndex),
		fieldTitle:           r.Title,
		fieldURL:             r.URL,
		fieldCreatedTime:     formatTime(r.CreatedTime),
		fieldLastEditedTime:  formatTime(r.LastEditedTime),
		fieldArchived:        strconv.FormatBool(r.Archived),
		fieldProperties:      string(properties),
		fieldContentText:     r.ContentText,
		fieldContentBlocks:   string(blocks),
		fieldEmbeddingModel:  r.EmbeddingModel,
		fieldLastUpdatedTime: formatTime(r.LastUpdatedTime),
		fieldSyncRunID:       r.SyncRunID,
	}, nil
}

// priorFromMetadata 변경 감지용 투영만 꺼냅니다
func priorFromMetadata(chunkID string, md map[string]string) (models.PriorRecord, error) {
	edited, err := parseTime(md[fieldLastEditedTime])
	if err != nil {
		return models.PriorRecord{}, fmt.Errorf("%s: last_edited_time 파싱 실패: %w", chunkID, err)
	}
	return models.PriorRecord{ChunkID: chunkID, LastEditedTime: edited}, nil
}

func searchResultFromMetadata(chunkID, content string, similarity float32, md map[string]string) models.SearchResult {
	index, _ := strconv.Atoi(md[fieldChunkIndex])
	return models.SearchResult{
		ChunkID:    chunkID,
		PageID:     md[fieldPageID],
		ChunkIndex: index,
		Title:      md[fieldTitle],
		URL:        md[fieldURL],
		Content:    content,
		Similarity: similarity,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

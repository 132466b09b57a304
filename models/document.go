package models

import (
	"fmt"
	"time"
)

// Chunk 페이지 본문 텍스트의 연속된 조각
type Chunk struct {
	PageID string
	Index  int // 1부터 시작
	Text   string
}

// ID 저장소 키로 쓰이는 청크 ID를 반환합니다
func (c Chunk) ID() string {
	return ChunkID(c.PageID, c.Index)
}

// ChunkID 페이지 ID와 청크 번호로 결정적인 청크 ID를 만듭니다
func ChunkID(pageID string, index int) string {
	return fmt.Sprintf("%s-chunk-%d", pageID, index)
}

// StoredRecord 벡터 저장소에 저장되는 문서 (청크당 하나)
type StoredRecord struct {
	ChunkID         string
	PageID          string
	ChunkIndex      int
	ChunkText       string
	Title           string
	URL             string
	CreatedTime     time.Time
	LastEditedTime  time.Time
	Archived        bool
	Properties      map[string]any
	ContentText     string
	ContentBlocks   []ContentBlock
	EmbeddingModel  string
	LastUpdatedTime time.Time
	SyncRunID       string
	Vector          []float32
}

// PriorRecord 변경 감지에 필요한 기존 레코드 정보
type PriorRecord struct {
	ChunkID        string
	LastEditedTime time.Time
}

// SearchResult 유사도 검색 결과
type SearchResult struct {
	ChunkID    string
	PageID     string
	ChunkIndex int
	Title      string
	URL        string
	Content    string
	Similarity float32
}

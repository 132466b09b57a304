package models

import "time"

// Page Notion에서 가져온 페이지 스냅샷 (읽기 전용)
type Page struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	URL            string         `json:"url"`
	CreatedTime    time.Time      `json:"created_time"`
	LastEditedTime time.Time      `json:"last_edited_time"`
	Archived       bool           `json:"archived"`
	Properties     map[string]any `json:"properties"`
}

// BlockType 추출된 콘텐츠 블록의 종류
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockToDo             BlockType = "to_do"
	BlockCode             BlockType = "code"
	BlockQuote            BlockType = "quote"
	BlockCallout          BlockType = "callout"

	// BlockOther 메타데이터로만 보존되고 임베딩에는 쓰이지 않는 블록
	BlockOther BlockType = "other"
)

// Vectorizable 블록 텍스트가 임베딩 입력에 포함되는지 여부를 반환합니다
func (t BlockType) Vectorizable() bool {
	switch t {
	case BlockParagraph, BlockHeading1, BlockHeading2, BlockHeading3,
		BlockBulletedListItem, BlockNumberedListItem, BlockToDo,
		BlockCode, BlockQuote, BlockCallout:
		return true
	}
	return false
}

// ContentBlock 페이지 블록 트리에서 추출한 블록 하나
type ContentBlock struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	RawType string    `json:"raw_type"`
	Content string    `json:"content"`
}

// Content 페이지 추출 결과 (임베딩용 텍스트 + 전체 블록 목록)
type Content struct {
	Text   string         `json:"content_text"`
	Blocks []ContentBlock `json:"content_blocks"`
}

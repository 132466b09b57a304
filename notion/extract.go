package notion

import (
	"errors"
	"fmt"
	"strings"

	"goc-notion-sync/models"

	"github.com/jomei/notionapi"
)

// ErrMalformedBlock 블록 데이터를 해석할 수 없을 때 반환됩니다
var ErrMalformedBlock = errors.New("잘못된 블록 데이터")

// Extract 깊이 우선으로 평탄화된 블록 목록에서 임베딩용 텍스트와 블록 메타데이터를 추출합니다.
// 임베딩 대상 블록의 텍스트는 빈 블록까지 포함해 블록 순서대로 줄바꿈으로 이어 붙이고,
// 나머지 블록은 메타데이터로만 남깁니다. 빈 문단은 본문에 빈 줄(문단 경계)로 남습니다.
func Extract(blocks []notionapi.Block) (models.Content, error) {
	content := models.Content{
		Blocks: make([]models.ContentBlock, 0, len(blocks)),
	}

	var parts []string
	for i, block := range blocks {
		if block == nil {
			return models.Content{}, fmt.Errorf("%w: %d번째 블록이 비어있습니다", ErrMalformedBlock, i)
		}

		cb := extractBlock(block)
		content.Blocks = append(content.Blocks, cb)

		if cb.Type.Vectorizable() {
			parts = append(parts, cb.Content)
		}
	}

	content.Text = strings.Join(parts, "\n")
	return content, nil
}

// extractBlock 블록 하나를 ContentBlock으로 변환합니다
func extractBlock(block notionapi.Block) models.ContentBlock {
	cb := models.ContentBlock{
		ID:      string(block.GetID()),
		RawType: string(block.GetType()),
	}

	switch b := block.(type) {
	case *notionapi.ParagraphBlock:
		cb.Type, cb.Content = models.BlockParagraph, extractRichText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		cb.Type, cb.Content = models.BlockHeading1, extractRichText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		cb.Type, cb.Content = models.BlockHeading2, extractRichText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		cb.Type, cb.Content = models.BlockHeading3, extractRichText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		cb.Type, cb.Content = models.BlockBulletedListItem, extractRichText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		cb.Type, cb.Content = models.BlockNumberedListItem, extractRichText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		cb.Type, cb.Content = models.BlockToDo, extractRichText(b.ToDo.RichText)
	case *notionapi.CodeBlock:
		cb.Type, cb.Content = models.BlockCode, extractRichText(b.Code.RichText)
	case *notionapi.QuoteBlock:
		cb.Type, cb.Content = models.BlockQuote, extractRichText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		cb.Type, cb.Content = models.BlockCallout, extractRichText(b.Callout.RichText)
	default:
		cb.Type, cb.Content = models.BlockOther, describeBlock(block)
	}

	if cb.RawType == "" {
		cb.RawType = string(cb.Type)
	}
	return cb
}

// describeBlock 임베딩 대상이 아닌 블록의 텍스트를 가능한 만큼 뽑아냅니다
func describeBlock(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.ToggleBlock:
		return extractRichText(b.Toggle.RichText)
	case *notionapi.ChildPageBlock:
		return b.ChildPage.Title
	case *notionapi.ChildDatabaseBlock:
		return b.ChildDatabase.Title
	case *notionapi.BookmarkBlock:
		return captionOr(b.Bookmark.Caption, b.Bookmark.URL)
	case *notionapi.LinkToPageBlock:
		return string(b.LinkToPage.PageID)
	case *notionapi.ImageBlock:
		return extractRichText(b.Image.Caption)
	case *notionapi.VideoBlock:
		return extractRichText(b.Video.Caption)
	case *notionapi.FileBlock:
		return extractRichText(b.File.Caption)
	case *notionapi.DividerBlock:
		return "---"
	case *notionapi.TableRowBlock:
		var cells []string
		for _, cell := range b.TableRow.Cells {
			if text := extractRichText(cell); text != "" {
				cells = append(cells, text)
			}
		}
		return strings.Join(cells, " | ")
	default:
		return ""
	}
}

// captionOr 캡션이 있으면 캡션을, 없으면 fallback을 반환합니다
func captionOr(caption []notionapi.RichText, fallback string) string {
	if text := extractRichText(caption); text != "" {
		return text
	}
	return fallback
}

// extractRichText RichText 배열에서 서식을 버리고 텍스트만 추출합니다
func extractRichText(richText []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range richText {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

package notion

import (
	"strings"
	"testing"

	"goc-notion-sync/models"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rich(parts ...string) []notionapi.RichText {
	out := make([]notionapi.RichText, 0, len(parts))
	for _, p := range parts {
		out = append(out, notionapi.RichText{PlainText: p})
	}
	return out
}

func basic(id, typ string) notionapi.BasicBlock {
	return notionapi.BasicBlock{
		Object: notionapi.ObjectTypeBlock,
		ID:     notionapi.BlockID(id),
		Type:   notionapi.BlockType(typ),
	}
}

func paragraph(id string, parts ...string) *notionapi.ParagraphBlock {
	b := &notionapi.ParagraphBlock{BasicBlock: basic(id, "paragraph")}
	b.Paragraph.RichText = rich(parts...)
	return b
}

func TestExtract(t *testing.T) {
	heading := &notionapi.Heading1Block{BasicBlock: basic("b1", "heading_1")}
	heading.Heading1.RichText = rich("Title")

	toggle := &notionapi.ToggleBlock{BasicBlock: basic("b4", "toggle")}
	toggle.Toggle.RichText = rich("hidden")

	todo := &notionapi.ToDoBlock{BasicBlock: basic("b5", "to_do")}
	todo.ToDo.RichText = rich("task")
	todo.ToDo.Checked = true

	code := &notionapi.CodeBlock{BasicBlock: basic("b7", "code")}
	code.Code.RichText = rich("fmt.Println()")
	code.Code.Language = "go"

	blocks := []notionapi.Block{
		heading,
		paragraph("b2", "Hello ", "world"),
		&notionapi.DividerBlock{BasicBlock: basic("b3", "divider")},
		toggle,
		todo,
		paragraph("b6", "  "),
		code,
	}

	content, err := Extract(blocks)
	require.NoError(t, err)

	assert.Equal(t, "Title\nHello world\ntask\n  \nfmt.Println()", content.Text)
	require.Len(t, content.Blocks, 7)

	assert.Equal(t, models.ContentBlock{ID: "b1", Type: models.BlockHeading1, RawType: "heading_1", Content: "Title"}, content.Blocks[0])
	assert.Equal(t, models.ContentBlock{ID: "b3", Type: models.BlockOther, RawType: "divider", Content: "---"}, content.Blocks[2])
	assert.Equal(t, models.ContentBlock{ID: "b4", Type: models.BlockOther, RawType: "toggle", Content: "hidden"}, content.Blocks[3])
	assert.Equal(t, models.BlockParagraph, content.Blocks[5].Type)
	assert.Equal(t, models.BlockCode, content.Blocks[6].Type)
}

func TestExtractKeepsEmptyParagraphs(t *testing.T) {
	content, err := Extract([]notionapi.Block{
		paragraph("b1", "first"),
		paragraph("b2"),
		paragraph("b3", "second"),
	})
	require.NoError(t, err)
	assert.Equal(t, "first\n\nsecond", content.Text)
	assert.Len(t, content.Blocks, 3)
}

func TestExtractOnlyEmptyParagraphs(t *testing.T) {
	content, err := Extract([]notionapi.Block{paragraph("b1"), paragraph("b2", " ")})
	require.NoError(t, err)
	assert.Equal(t, "\n ", content.Text)
	assert.Empty(t, strings.TrimSpace(content.Text))
}

func TestExtractOnlyUnsupportedBlocks(t *testing.T) {
	child := &notionapi.ChildPageBlock{BasicBlock: basic("b2", "child_page")}
	child.ChildPage.Title = "Sub page"

	blocks := []notionapi.Block{
		&notionapi.DividerBlock{BasicBlock: basic("b1", "divider")},
		child,
	}

	content, err := Extract(blocks)
	require.NoError(t, err)
	assert.Empty(t, content.Text)
	require.Len(t, content.Blocks, 2)
	assert.Equal(t, "Sub page", content.Blocks[1].Content)
	assert.Equal(t, "child_page", content.Blocks[1].RawType)
}

func TestExtractNilBlock(t *testing.T) {
	_, err := Extract([]notionapi.Block{nil})
	require.ErrorIs(t, err, ErrMalformedBlock)
}

func TestExtractEmpty(t *testing.T) {
	content, err := Extract(nil)
	require.NoError(t, err)
	assert.Empty(t, content.Text)
	assert.Empty(t, content.Blocks)
}

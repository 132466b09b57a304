package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reconstruct(chunks []string, overlap int) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestSplitInvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		max     int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap larger than size", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split("hello", tt.max, tt.overlap)
			require.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	chunks, err := Split("", 100, 10)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitFitsInOneChunk(t *testing.T) {
	chunks, err := Split("short text", 100, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestSplitDefaultScenario(t *testing.T) {
	text := strings.Repeat("abcd ", 3500)
	require.Equal(t, 17500, len(text))

	chunks, err := Split(text, 8000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	first := chunks[0]
	tail := first[len(first)-200:]
	assert.True(t, strings.HasPrefix(chunks[1], tail), "chunk 2 must begin inside the last 200 characters of chunk 1")
	assert.Equal(t, text, reconstruct(chunks, 200))

	pageChunks, err := Chunks("page-1", text, 8000, 200)
	require.NoError(t, err)
	for i, c := range pageChunks {
		assert.Equal(t, i+1, c.Index)
		assert.Equal(t, chunks[i], c.Text)
	}
	assert.Equal(t, "page-1-chunk-3", pageChunks[2].ID())
}

func TestSplitPrefersParagraph(t *testing.T) {
	para := strings.Repeat("a", 60) + "\n\n"
	text := para + strings.Repeat("This is b. ", 10)

	chunks, err := Split(text, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, para, chunks[0])
	assert.Equal(t, text, reconstruct(chunks, 10))
}

func TestSplitPrefersSentence(t *testing.T) {
	sentence := strings.Repeat("x", 55) + ". "
	text := sentence + strings.Repeat("word ", 20)

	chunks, err := Split(text, 80, 5)
	require.NoError(t, err)
	assert.Equal(t, sentence, chunks[0])
	assert.Equal(t, text, reconstruct(chunks, 5))
}

func TestSplitPrefersWord(t *testing.T) {
	text := strings.Repeat("abcdefghi ", 30)

	chunks, err := Split(text, 45, 5)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("abcdefghi ", 4), chunks[0])
	assert.Equal(t, text, reconstruct(chunks, 5))
}

func TestSplitHardCut(t *testing.T) {
	text := strings.Repeat("x", 250)

	chunks, err := Split(text, 100, 20)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 90)
	assert.Equal(t, text, reconstruct(chunks, 20))
}

func TestSplitCountsRunes(t *testing.T) {
	text := strings.Repeat("가나다라 ", 100)

	chunks, err := Split(text, 50, 10)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 50)
		assert.True(t, utf8.ValidString(c))
	}
	assert.Equal(t, text, reconstruct(chunks, 10))
}

func TestSplitProperties(t *testing.T) {
	texts := []string{
		"One. Two! Three? Four.\nFive six seven\n\nEight nine ten eleven twelve.",
		strings.Repeat("lorem ipsum dolor sit amet, ", 200),
		strings.Repeat("line\n", 300),
		strings.Repeat("문장입니다. ", 150) + strings.Repeat("z", 400),
	}
	configs := [][2]int{{10, 0}, {30, 5}, {64, 63}, {200, 20}, {1, 0}}

	for _, text := range texts {
		for _, cfg := range configs {
			first, err := Split(text, cfg[0], cfg[1])
			require.NoError(t, err)
			second, err := Split(text, cfg[0], cfg[1])
			require.NoError(t, err)

			assert.Equal(t, first, second, "chunking must be deterministic")
			assert.Equal(t, text, reconstruct(first, cfg[1]))
			for _, c := range first {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), cfg[0])
			}
		}
	}
}

package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"goc-notion-sync/models"
	"goc-notion-sync/pipeline"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	questions []string
	results   []models.SearchResult
	err       error
}

func (f *fakeSearcher) Search(_ context.Context, question string) ([]models.SearchResult, error) {
	f.questions = append(f.questions, question)
	return f.results, f.err
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestModelSearchFlow(t *testing.T) {
	searcher := &fakeSearcher{results: []models.SearchResult{
		{Title: "회의록", ChunkIndex: 1, Similarity: 0.87, URL: "https://www.notion.so/x", Content: "주간 회의"},
	}}
	m := NewModel(context.Background(), searcher)

	typeText(m, "회의x")
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "회의", m.question)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Contains(t, m.View(), "검색 중")

	m.Update(cmd())
	assert.False(t, m.loading)
	assert.Equal(t, []string{"회의"}, searcher.questions)
	assert.Empty(t, m.question)

	view := m.View()
	assert.Contains(t, view, "회의록")
	assert.Contains(t, view, "0.870")
	assert.Contains(t, view, "주간 회의")
}

func TestModelSearchError(t *testing.T) {
	m := NewModel(context.Background(), &fakeSearcher{err: errors.New("store down")})

	typeText(m, "q")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(cmd())

	assert.Contains(t, m.View(), "store down")
}

func TestModelQuit(t *testing.T) {
	m := NewModel(context.Background(), &fakeSearcher{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	typeText(m, "exit")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
}

func TestRenderSummary(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	stats := &pipeline.Stats{
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Found:      5,
		Inserted:   1,
		Updated:    1,
		Skipped:    1,
		Failed:     1,
		Failures: []pipeline.Failure{
			{PageID: "p4", Title: "깨진 페이지", State: pipeline.StateChunked, Err: errors.New("quota exceeded")},
		},
	}

	out := RenderSummary(stats)
	assert.Contains(t, out, "동기화 결과")
	assert.Contains(t, out, "깨진 페이지")
	assert.Contains(t, out, "quota exceeded")
	assert.Contains(t, out, "2s")
	assert.Contains(t, out, "4/5")
	assert.Empty(t, RenderSummary(nil))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b c", snippet("  a\n\tb   c ", 10))
	assert.Equal(t, "가나…", snippet("가나다라", 2))
	assert.Equal(t, "가나", snippet("가나", 2))
}

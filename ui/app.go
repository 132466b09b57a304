package ui

import (
	"context"
	"fmt"
	"strings"

	"goc-notion-sync/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			MarginBottom(1)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true).
			PaddingLeft(2)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			PaddingLeft(4).
			Width(80)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			MarginTop(1).
			PaddingLeft(2)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D")).
			MarginTop(1).
			PaddingLeft(2)
)

// Searcher 질문으로 청크를 검색합니다
type Searcher interface {
	Search(ctx context.Context, question string) ([]models.SearchResult, error)
}

// Model TUI 애플리케이션 모델
type Model struct {
	ctx      context.Context
	searcher Searcher
	question string
	asked    string
	results  []models.SearchResult
	searched bool
	err      error
	loading  bool
	quitting bool
	width    int
	height   int
}

// NewModel 새로운 TUI 모델을 생성합니다
func NewModel(ctx context.Context, searcher Searcher) *Model {
	return &Model{
		ctx:      ctx,
		searcher: searcher,
	}
}

// Init bubbletea 초기화 함수
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update bubbletea 업데이트 함수
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			question := strings.TrimSpace(m.question)
			if question == "" {
				return m, nil
			}
			if question == "exit" {
				m.quitting = true
				return m, tea.Quit
			}
			m.loading = true
			m.asked = question
			m.results = nil
			m.err = nil
			return m, m.search(question)

		case tea.KeyBackspace:
			if runes := []rune(m.question); len(runes) > 0 {
				m.question = string(runes[:len(runes)-1])
			}
			return m, nil

		case tea.KeyRunes, tea.KeySpace:
			m.question += string(msg.Runes)
			return m, nil
		}

	case searchResultMsg:
		m.loading = false
		m.searched = true
		m.results = msg.results
		m.err = msg.err
		m.question = ""
		return m, nil
	}

	return m, nil
}

// View bubbletea 뷰 함수
func (m *Model) View() string {
	if m.quitting {
		return "\n👋 안녕히 가세요!\n\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("📚 Notion 의미 검색"))
	b.WriteString("\n\n")

	b.WriteString("검색어 입력 (Enter: 검색, Esc: 종료):\n")
	b.WriteString("> " + m.question)
	if !m.loading {
		b.WriteString("_")
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(loadingStyle.Render("🔍 검색 중..."))
		b.WriteString("\n")
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("❌ 오류: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}

	if !m.searched {
		return b.String()
	}

	b.WriteString(headingStyle.Render(fmt.Sprintf("💬 %q 검색 결과 %d건", m.asked, len(m.results))))
	b.WriteString("\n\n")
	for i, r := range m.results {
		title := r.Title
		if title == "" {
			title = "제목 없음"
		}
		b.WriteString(headingStyle.Render(fmt.Sprintf("%d. %s", i+1, title)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("유사도 %.3f · 청크 %d · %s", r.Similarity, r.ChunkIndex, r.URL)))
		b.WriteString("\n")
		b.WriteString(resultStyle.Render(snippet(r.Content, 240)))
		b.WriteString("\n\n")
	}

	return b.String()
}

// searchResultMsg 검색 결과 메시지
type searchResultMsg struct {
	results []models.SearchResult
	err     error
}

// search 검색을 수행하는 커맨드
func (m *Model) search(question string) tea.Cmd {
	return func() tea.Msg {
		results, err := m.searcher.Search(m.ctx, question)
		return searchResultMsg{results: results, err: err}
	}
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}

// Run TUI 애플리케이션을 실행합니다
func Run(ctx context.Context, searcher Searcher) error {
	model := NewModel(ctx, searcher)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

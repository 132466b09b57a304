package ui

import (
	"fmt"
	"strings"
	"time"

	"goc-notion-sync/pipeline"

	"github.com/charmbracelet/lipgloss"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(12)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// RenderSummary 동기화 실행 결과를 상자 형태로 그립니다
func RenderSummary(stats *pipeline.Stats) string {
	if stats == nil {
		return ""
	}

	row := func(label string, value int, style lipgloss.Style) string {
		return labelStyle.Render(label) + style.Render(fmt.Sprintf("%d", value))
	}

	rows := []string{
		titleStyle.Render("📊 동기화 결과"),
		row("발견", stats.Found, okStyle),
		// 중단된 실행이면 처리 수가 발견 수보다 작음
		labelStyle.Render("처리") + okStyle.Render(fmt.Sprintf("%d/%d", stats.Processed(), stats.Found)),
		row("추가", stats.Inserted, okStyle),
		row("갱신", stats.Updated, okStyle),
		row("변경 없음", stats.Skipped, okStyle),
		row("본문 없음", stats.NoContent, okStyle),
		row("청크", stats.Chunks, okStyle),
	}

	failedStyle := okStyle
	if stats.Failed > 0 {
		failedStyle = failStyle
	}
	rows = append(rows, row("실패", stats.Failed, failedStyle))
	rows = append(rows, labelStyle.Render("소요 시간")+okStyle.Render(stats.Duration().Round(time.Millisecond).String()))

	for _, f := range stats.Failures {
		title := f.Title
		if title == "" {
			title = f.PageID
		}
		rows = append(rows, failStyle.Render(fmt.Sprintf("  ❌ %s [%s] %v", title, f.State, f.Err)))
	}

	return boxStyle.Render(strings.Join(rows, "\n"))
}

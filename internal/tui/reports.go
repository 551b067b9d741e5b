package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promanager/internal/board"
)

type reportsModel struct {
	board  *board.Board
	width  int
	height int
}

func newReportsModel(b *board.Board) reportsModel {
	return reportsModel{board: b}
}

func (m *reportsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	return m, nil
}

func (m reportsModel) view() string {
	stats := m.board.Stats()

	var b strings.Builder
	b.WriteString(headerStyle.Render("Overview"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d projects (%d active) · %d tasks done · %d open\n\n",
		stats.TotalProjects, stats.ActiveProjects, stats.CompletedTasks, stats.PendingTasks)

	b.WriteString(headerStyle.Render("Project progress"))
	b.WriteString("\n")
	b.WriteString(m.renderProgressChart())
	return b.String()
}

// renderProgressChart draws one bar per project, scaled 0-100.
func (m reportsModel) renderProgressChart() string {
	projects := m.board.Projects()
	if len(projects) == 0 {
		return mutedStyle.Render("No projects to chart.")
	}

	chartWidth := clamp(m.width-4, 20, 100)
	chartHeight := clamp(m.height-8, 6, 16)
	chart := barchart.New(chartWidth, chartHeight)

	barStyle := lipgloss.NewStyle().Foreground(colorAccent)
	var bars []barchart.BarData
	for _, p := range projects {
		bars = append(bars, barchart.BarData{
			Label: truncate(p.Name, 10),
			Values: []barchart.BarValue{
				{Name: p.Name, Value: float64(m.board.Progress(p.ID)), Style: barStyle},
			},
		})
	}
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}

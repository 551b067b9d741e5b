package tui

import (
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"promanager/internal/board"
	"promanager/internal/model"
)

type agendaModel struct {
	board  *board.Board
	width  int
	height int
}

func newAgendaModel(b *board.Board) agendaModel {
	return agendaModel{board: b}
}

func (m *agendaModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m agendaModel) update(msg tea.Msg) (agendaModel, tea.Cmd) {
	return m, nil
}

type agendaGroup struct {
	date  string
	tasks []model.Task
}

// agendaGroups buckets open tasks by due date, dated buckets first in
// ascending order, undated last.
func agendaGroups(tasks []model.Task) []agendaGroup {
	byDate := map[string][]model.Task{}
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			continue
		}
		byDate[t.DueDate] = append(byDate[t.DueDate], t)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		if d != "" {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	if _, ok := byDate[""]; ok {
		dates = append(dates, "")
	}

	groups := make([]agendaGroup, 0, len(dates))
	for _, d := range dates {
		groups = append(groups, agendaGroup{date: d, tasks: byDate[d]})
	}
	return groups
}

func renderAgenda(groups []agendaGroup, today string, width int) string {
	if len(groups) == 0 {
		return mutedStyle.Render("Nothing on the agenda.")
	}

	var b strings.Builder
	for _, g := range groups {
		label := g.date
		switch {
		case label == "":
			label = "No due date"
		case label == today:
			label = label + " · today"
		case label < today:
			label = label + " · overdue"
		}
		if g.date != "" && g.date < today {
			b.WriteString(statusErrStyle.Render(label))
		} else {
			b.WriteString(headerStyle.Render(label))
		}
		b.WriteString("\n")
		for _, t := range g.tasks {
			line := "  • " + truncate(t.Title, width-10)
			if badge := taskBadge(t); badge != "" {
				line += " " + badge
			}
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m agendaModel) view() string {
	today := time.Now().Format("2006-01-02")
	return renderAgenda(agendaGroups(m.board.Tasks()), today, m.width)
}

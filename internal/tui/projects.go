package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"promanager/internal/board"
	"promanager/internal/model"
	"promanager/internal/mutate"
)

type projectRow struct {
	project  model.Project
	progress int
	tasks    int
}

type projectsModel struct {
	board  *board.Board
	width  int
	height int

	idx int

	formActive bool
	form       *huh.Form
	formName   *string
	formDesc   *string
	formShared *bool
}

func newProjectsModel(b *board.Board) projectsModel {
	return projectsModel{board: b}
}

func (m *projectsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m projectsModel) rows() []projectRow {
	counts := map[string]int{}
	for _, t := range m.board.Tasks() {
		if t.ProjectID != nil {
			counts[*t.ProjectID]++
		}
	}
	var rows []projectRow
	for _, p := range m.board.Projects() {
		rows = append(rows, projectRow{
			project:  p,
			progress: m.board.Progress(p.ID),
			tasks:    counts[p.ID],
		})
	}
	return rows
}

func (m projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if m.formActive {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	rows := m.rows()

	switch {
	case key.Matches(keyMsg, keys.Up):
		m.idx = clamp(m.idx-1, 0, len(rows)-1)
	case key.Matches(keyMsg, keys.Down):
		m.idx = clamp(m.idx+1, 0, len(rows)-1)
	case key.Matches(keyMsg, keys.New):
		return m.openForm()
	case key.Matches(keyMsg, keys.Delete):
		if len(rows) == 0 {
			return m, nil
		}
		p := rows[clamp(m.idx, 0, len(rows)-1)].project
		b := m.board
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			if err := b.DeleteProject(ctx, p.ID); err != nil {
				return errMsg{err: err}
			}
			return statusMsg{text: "deleted project: " + p.Name}
		}
	}
	return m, nil
}

func (m projectsModel) openForm() (projectsModel, tea.Cmd) {
	name, desc, shared := "", "", false
	m.formName, m.formDesc, m.formShared = &name, &desc, &shared
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(m.formName),
			huh.NewText().Title("Description").Value(m.formDesc),
			huh.NewConfirm().Title("Shared across areas?").Value(m.formShared),
		),
	)
	m.formActive = true
	return m, m.form.Init()
}

func (m projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.formActive = false
		return m, nil
	}

	f, cmd := m.form.Update(msg)
	if form, ok := f.(*huh.Form); ok {
		m.form = form
	}
	if m.form.State == huh.StateCompleted {
		m.formActive = false
		draft := mutate.ProjectDraft{
			Name:        *m.formName,
			Description: *m.formDesc,
			IsShared:    *m.formShared,
		}
		b := m.board
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			p, err := b.CreateProject(ctx, draft)
			if err != nil {
				return errMsg{err: err}
			}
			return statusMsg{text: "created project: " + p.Name}
		}
	}
	return m, cmd
}

func progressBar(pct, width int) string {
	if width < 4 {
		width = 4
	}
	filled := pct * width / 100
	return progressBarStyle.Render(strings.Repeat("█", filled)) +
		progressTrackStyle.Render(strings.Repeat("░", width-filled))
}

func renderProjectRows(rows []projectRow, selIdx, width int) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No projects yet. Press n to create one.")
	}
	nameWidth := clamp(width/3, 12, 40)

	var b strings.Builder
	for i, row := range rows {
		cursor := "  "
		name := fmt.Sprintf("%-*s", nameWidth, truncate(row.project.Name, nameWidth))
		if i == selIdx {
			cursor = "> "
			name = headerStyle.Render(name)
		}
		shared := ""
		if row.project.IsShared {
			shared = badgeApproved.Render(" [shared]")
		}
		fmt.Fprintf(&b, "%s%s %s %3d%% · %d tasks%s\n",
			cursor, name, progressBar(row.progress, 20), row.progress, row.tasks, shared)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m projectsModel) view() string {
	if m.formActive {
		return m.form.View()
	}
	rows := m.rows()
	return renderProjectRows(rows, clamp(m.idx, 0, len(rows)-1), m.width)
}

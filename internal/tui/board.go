package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"promanager/internal/board"
	"promanager/internal/model"
	"promanager/internal/mutate"
)

var kanbanStatuses = []model.Status{model.StatusPending, model.StatusProgress, model.StatusCompleted}

var kanbanTitles = map[model.Status]string{
	model.StatusPending:   "Pending",
	model.StatusProgress:  "In Progress",
	model.StatusCompleted: "Completed",
}

type kanbanColumn struct {
	status model.Status
	title  string
	tasks  []model.Task
}

type kanbanModel struct {
	board  *board.Board
	width  int
	height int

	col        int
	idx        int
	showDetail bool

	formActive bool
	form       *huh.Form
	formTitle  *string
	formDesc   *string
	formProj   *string
	formDue    *string
}

func newKanbanModel(b *board.Board) kanbanModel {
	return kanbanModel{board: b}
}

func (m *kanbanModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m kanbanModel) columns() []kanbanColumn {
	cols := make([]kanbanColumn, 0, len(kanbanStatuses))
	for _, st := range kanbanStatuses {
		cols = append(cols, kanbanColumn{
			status: st,
			title:  kanbanTitles[st],
			tasks:  m.board.TasksByStatus(st),
		})
	}
	return cols
}

func (m kanbanModel) selectedTask(cols []kanbanColumn) (model.Task, bool) {
	col := clamp(m.col, 0, len(cols)-1)
	tasks := cols[col].tasks
	if len(tasks) == 0 {
		return model.Task{}, false
	}
	return tasks[clamp(m.idx, 0, len(tasks)-1)], true
}

func (m kanbanModel) update(msg tea.Msg) (kanbanModel, tea.Cmd) {
	if m.formActive {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	cols := m.columns()

	switch {
	case key.Matches(keyMsg, keys.Left):
		m.col = clamp(m.col-1, 0, len(cols)-1)
		m.idx = 0
	case key.Matches(keyMsg, keys.Right):
		m.col = clamp(m.col+1, 0, len(cols)-1)
		m.idx = 0
	case key.Matches(keyMsg, keys.Up):
		m.idx = clamp(m.idx-1, 0, maxIdx(cols[m.col]))
	case key.Matches(keyMsg, keys.Down):
		m.idx = clamp(m.idx+1, 0, maxIdx(cols[m.col]))
	case key.Matches(keyMsg, keys.Enter):
		m.showDetail = !m.showDetail
	case key.Matches(keyMsg, keys.Back):
		m.showDetail = false
	case key.Matches(keyMsg, keys.New):
		return m.openForm()
	case key.Matches(keyMsg, keys.MovePend):
		return m, m.moveCmd(cols, model.StatusPending)
	case key.Matches(keyMsg, keys.MoveProg):
		return m, m.moveCmd(cols, model.StatusProgress)
	case key.Matches(keyMsg, keys.MoveDone):
		return m, m.moveCmd(cols, model.StatusCompleted)
	case key.Matches(keyMsg, keys.Toggle):
		if t, ok := m.selectedTask(cols); ok {
			return m, m.taskCmd("toggled", func(ctx context.Context) (model.Task, error) {
				return m.board.ToggleTask(ctx, t.ID)
			})
		}
	case key.Matches(keyMsg, keys.Approve):
		if t, ok := m.selectedTask(cols); ok {
			return m, m.taskCmd("approved", func(ctx context.Context) (model.Task, error) {
				return m.board.ApproveTask(ctx, t.ID, true)
			})
		}
	case key.Matches(keyMsg, keys.Reject):
		if t, ok := m.selectedTask(cols); ok {
			return m, m.taskCmd("rejected", func(ctx context.Context) (model.Task, error) {
				return m.board.ApproveTask(ctx, t.ID, false)
			})
		}
	case key.Matches(keyMsg, keys.Delete):
		if t, ok := m.selectedTask(cols); ok {
			return m, m.deleteCmd(t)
		}
	}
	return m, nil
}

func maxIdx(col kanbanColumn) int {
	if len(col.tasks) == 0 {
		return 0
	}
	return len(col.tasks) - 1
}

func (m kanbanModel) moveCmd(cols []kanbanColumn, to model.Status) tea.Cmd {
	t, ok := m.selectedTask(cols)
	if !ok {
		return nil
	}
	return m.taskCmd("moved to "+string(to), func(ctx context.Context) (model.Task, error) {
		return m.board.MoveTask(ctx, t.ID, to)
	})
}

func (m kanbanModel) taskCmd(verb string, op func(context.Context) (model.Task, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		t, err := op(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return taskMutatedMsg{task: t, verb: verb}
	}
}

func (m kanbanModel) deleteCmd(t model.Task) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := b.DeleteTask(ctx, t.ID); err != nil {
			return errMsg{err: err}
		}
		return statusMsg{text: "deleted: " + t.Title}
	}
}

// --- new-task form ---

func (m kanbanModel) openForm() (kanbanModel, tea.Cmd) {
	title, desc, proj, due := "", "", "", ""
	m.formTitle, m.formDesc, m.formProj, m.formDue = &title, &desc, &proj, &due

	projectOptions := []huh.Option[string]{huh.NewOption("(none)", "")}
	for _, p := range m.board.Projects() {
		projectOptions = append(projectOptions, huh.NewOption(p.Name, p.ID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle),
			huh.NewText().Title("Description").Value(m.formDesc),
			huh.NewSelect[string]().Title("Project").Options(projectOptions...).Value(m.formProj),
			huh.NewInput().Title("Due date (YYYY-MM-DD)").Value(m.formDue),
		),
	)
	m.formActive = true
	return m, m.form.Init()
}

func (m kanbanModel) updateForm(msg tea.Msg) (kanbanModel, tea.Cmd) {
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
		draft := mutate.TaskDraft{
			Title:       *m.formTitle,
			Description: *m.formDesc,
			ProjectID:   *m.formProj,
			DueDate:     *m.formDue,
		}
		b := m.board
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()
			t, err := b.CreateTask(ctx, draft)
			if err != nil {
				return errMsg{err: err}
			}
			return taskMutatedMsg{task: t, verb: "created"}
		}
	}
	return m, cmd
}

// --- rendering ---

func taskBadge(t model.Task) string {
	switch {
	case t.PendingReview():
		return badgePending.Render("◷ review")
	case t.Approved != nil && *t.Approved:
		return badgeApproved.Render("✓ approved")
	case t.Rejected():
		return badgeRejected.Render("✗ rejected")
	}
	return ""
}

func renderKanbanColumns(cols []kanbanColumn, selCol, selIdx, width, height int) string {
	if width < 30 {
		width = 30
	}
	colWidth := width/len(cols) - 4
	if colWidth < 16 {
		colWidth = 16
	}

	rendered := make([]string, 0, len(cols))
	for i, col := range cols {
		var b strings.Builder
		b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", col.title, len(col.tasks))))
		b.WriteString("\n")

		for j, t := range col.tasks {
			lines := []string{truncate(t.Title, colWidth-2)}
			if badge := taskBadge(t); badge != "" {
				lines = append(lines, badge)
			}
			if t.DueDate != "" {
				lines = append(lines, mutedStyle.Render("due "+t.DueDate))
			}
			card := cardStyle
			if i == selCol && j == selIdx {
				card = selectedCardStyle
			}
			b.WriteString(card.Width(colWidth).Render(strings.Join(lines, "\n")))
			b.WriteString("\n")
		}
		if len(col.tasks) == 0 {
			b.WriteString(mutedStyle.Render("(empty)"))
		}

		st := columnStyle
		if i == selCol {
			st = activeColumnStyle
		}
		rendered = append(rendered, st.Width(colWidth+2).Render(b.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m kanbanModel) view() string {
	if m.formActive {
		return m.form.View()
	}
	cols := m.columns()
	selCol := clamp(m.col, 0, len(cols)-1)
	selIdx := clamp(m.idx, 0, maxIdx(cols[selCol]))
	out := renderKanbanColumns(cols, selCol, selIdx, m.width, m.height)

	if m.showDetail {
		if t, ok := m.selectedTask(cols); ok {
			out += "\n" + m.renderDetail(t)
		}
	}
	return out
}

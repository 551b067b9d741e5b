package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"promanager/internal/board"
)

type loginModel struct {
	board  *board.Board
	width  int
	height int

	form     *huh.Form
	email    *string
	password *string
	busy     bool
	errText  string
}

func newLoginModel(b *board.Board) loginModel {
	email := ""
	password := ""
	m := loginModel{board: b, email: &email, password: &password}
	m.form = newLoginForm(m.email, m.password)
	return m
}

func newLoginForm(email, password *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(password),
		),
	)
}

func (m *loginModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m loginModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if m.busy {
		if e, ok := msg.(errMsg); ok {
			m.busy = false
			m.errText = e.err.Error()
			*m.password = ""
			m.form = newLoginForm(m.email, m.password)
			return m, m.form.Init()
		}
		return m, nil
	}

	f, cmd := m.form.Update(msg)
	if form, ok := f.(*huh.Form); ok {
		m.form = form
	}
	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.errText = ""
		return m, m.signInCmd(*m.email, *m.password)
	}
	return m, cmd
}

func (m loginModel) signInCmd(email, password string) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := b.SignIn(ctx, email, password); err != nil {
			return errMsg{err: err}
		}
		if err := b.Load(ctx); err != nil {
			return errMsg{err: err}
		}
		if err := b.Start(ctx); err != nil {
			return errMsg{err: err}
		}
		return signedInMsg{}
	}
}

func (m loginModel) view() string {
	title := headerStyle.Render("promanager")
	body := m.form.View()
	if m.busy {
		body = mutedStyle.Render("signing in…")
	}
	if m.errText != "" {
		body = statusErrStyle.Render(m.errText) + "\n\n" + body
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2).
		Render(title + "\n\n" + body)
	if m.width == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

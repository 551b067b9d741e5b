// Package tui is the terminal dashboard: kanban board, project list,
// reports and agenda over a board controller.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"promanager/internal/board"
)

func Run(b *board.Board) error {
	m := NewApp(b)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

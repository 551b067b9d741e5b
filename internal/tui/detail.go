package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"promanager/internal/model"
)

// renderDetail shows the selected task's metadata and markdown description
// under the board.
func (m kanbanModel) renderDetail(t model.Task) string {
	width := m.width - 4
	if width < 40 {
		width = 40
	}

	var meta []string
	meta = append(meta, headerStyle.Render(t.Title))
	if t.ProjectID != nil {
		if p, ok := m.board.FindProject(*t.ProjectID); ok {
			meta = append(meta, mutedStyle.Render("project: ")+p.Name)
		}
	}
	if t.AssignedTo != nil {
		meta = append(meta, mutedStyle.Render("assignee: ")+m.board.ProfileName(*t.AssignedTo))
	}
	if t.DueDate != "" {
		meta = append(meta, mutedStyle.Render("due: ")+t.DueDate)
	}
	meta = append(meta, mutedStyle.Render("status: ")+string(t.Status))
	if badge := taskBadge(t); badge != "" {
		meta = append(meta, badge)
	}
	if t.ApprovedBy != nil {
		meta = append(meta, mutedStyle.Render("reviewed by: ")+m.board.ProfileName(*t.ApprovedBy))
	}

	body := strings.Join(meta, "\n")
	if desc := renderMarkdown(t.Description, width-4); desc != "" {
		body += "\n\n" + desc
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(body)
}

package tui

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"

	"promanager/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestRenderKanbanColumns_CountsAndTitles(t *testing.T) {
	cols := []kanbanColumn{
		{status: model.StatusPending, title: "Pending", tasks: []model.Task{
			{ID: "a", Title: "Write launch copy", Status: model.StatusPending},
			{ID: "b", Title: "Audit styles", Status: model.StatusPending},
		}},
		{status: model.StatusProgress, title: "In Progress", tasks: nil},
		{status: model.StatusCompleted, title: "Completed", tasks: []model.Task{
			{ID: "c", Title: "Ship beta", Status: model.StatusCompleted},
		}},
	}

	out := xansi.Strip(renderKanbanColumns(cols, 0, 0, 120, 30))
	for _, want := range []string{"Pending (2)", "In Progress (0)", "Completed (1)", "Write launch copy", "Ship beta", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got=%q", want, out)
		}
	}
}

func TestRenderKanbanColumns_Badges(t *testing.T) {
	cols := []kanbanColumn{
		{status: model.StatusCompleted, title: "Completed", tasks: []model.Task{
			{ID: "a", Title: "awaiting verdict", Status: model.StatusCompleted},
			{ID: "b", Title: "signed off", Status: model.StatusCompleted, Approved: ptr(true)},
		}},
	}

	out := xansi.Strip(renderKanbanColumns(cols, 0, 0, 60, 30))
	if !strings.Contains(out, "review") {
		t.Fatalf("expected pending-review badge, got=%q", out)
	}
	if !strings.Contains(out, "approved") {
		t.Fatalf("expected approved badge, got=%q", out)
	}
}

func TestTaskBadgeRejected(t *testing.T) {
	badge := xansi.Strip(taskBadge(model.Task{Status: model.StatusProgress, Approved: ptr(false)}))
	if !strings.Contains(badge, "rejected") {
		t.Fatalf("expected rejected badge, got=%q", badge)
	}
	if got := taskBadge(model.Task{Status: model.StatusPending}); got != "" {
		t.Fatalf("expected no badge for plain pending task, got=%q", got)
	}
}

func TestRenderProjectRows(t *testing.T) {
	rows := []projectRow{
		{project: model.Project{ID: "p1", Name: "Website"}, progress: 50, tasks: 4},
		{project: model.Project{ID: "p2", Name: "Reporting", IsShared: true}, progress: 100, tasks: 2},
	}

	out := xansi.Strip(renderProjectRows(rows, 1, 80))
	if !strings.Contains(out, "Website") || !strings.Contains(out, "Reporting") {
		t.Fatalf("missing project names: %q", out)
	}
	if !strings.Contains(out, "50%") || !strings.Contains(out, "100%") {
		t.Fatalf("missing progress: %q", out)
	}
	if !strings.Contains(out, "[shared]") {
		t.Fatalf("missing shared marker: %q", out)
	}
	if !strings.Contains(out, "> ") {
		t.Fatalf("missing selection cursor: %q", out)
	}
}

func TestRenderProjectRowsEmpty(t *testing.T) {
	out := xansi.Strip(renderProjectRows(nil, 0, 80))
	if !strings.Contains(out, "No projects") {
		t.Fatalf("unexpected empty output: %q", out)
	}
}

func TestAgendaGroupsOrder(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "later", Status: model.StatusPending, DueDate: "2026-09-20"},
		{ID: "b", Title: "sooner", Status: model.StatusPending, DueDate: "2026-09-01"},
		{ID: "c", Title: "undated", Status: model.StatusPending},
		{ID: "d", Title: "done", Status: model.StatusCompleted, DueDate: "2026-09-01"},
	}

	groups := agendaGroups(tasks)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].date != "2026-09-01" || groups[1].date != "2026-09-20" || groups[2].date != "" {
		t.Fatalf("unexpected order: %+v", groups)
	}
	for _, g := range groups {
		for _, task := range g.tasks {
			if task.Status == model.StatusCompleted {
				t.Fatal("completed task leaked into agenda")
			}
		}
	}
}

func TestRenderAgendaOverdue(t *testing.T) {
	groups := []agendaGroup{
		{date: "2026-08-01", tasks: []model.Task{{ID: "a", Title: "late thing", Status: model.StatusProgress}}},
		{date: "2026-08-31", tasks: []model.Task{{ID: "b", Title: "today thing", Status: model.StatusPending}}},
	}
	out := xansi.Strip(renderAgenda(groups, "2026-08-31", 80))
	if !strings.Contains(out, "2026-08-01 · overdue") {
		t.Fatalf("expected overdue marker: %q", out)
	}
	if !strings.Contains(out, "2026-08-31 · today") {
		t.Fatalf("expected today marker: %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello world", 5); got != "hell…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncate("hi", 5); got != "hi" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncate("hello", 0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

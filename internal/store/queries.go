package store

import (
	"math"
	"strings"

	"promanager/internal/model"
	"promanager/internal/perm"
)

// Derived read-only queries over the reconciled collections.

func (db *DB) TasksByProject(projectID string) []model.Task {
	projectID = strings.TrimSpace(projectID)
	var out []model.Task
	for _, t := range db.Tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out
}

func (db *DB) TasksByStatus(status model.Status) []model.Task {
	var out []model.Task
	for _, t := range db.Tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// TasksByDate returns tasks due on the given YYYY-MM-DD date.
func (db *DB) TasksByDate(date string) []model.Task {
	date = strings.TrimSpace(date)
	var out []model.Task
	for _, t := range db.Tasks {
		if t.DueDate == date {
			out = append(out, t)
		}
	}
	return out
}

// ProjectProgress returns the percentage of the project's tasks that are
// completed, rounded to the nearest integer; 0 for a project with no tasks.
func (db *DB) ProjectProgress(projectID string) int {
	tasks := db.TasksByProject(projectID)
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(len(tasks)) * 100))
}

type Stats struct {
	TotalProjects  int `json:"total_projects"`
	ActiveProjects int `json:"active_projects"`
	CompletedTasks int `json:"completed_tasks"`
	PendingTasks   int `json:"pending_tasks"`
}

func (db *DB) Stats() Stats {
	s := Stats{TotalProjects: len(db.Projects)}
	for _, p := range db.Projects {
		if p.Status != model.StatusCompleted {
			s.ActiveProjects++
		}
	}
	for _, t := range db.Tasks {
		if t.Status == model.StatusCompleted {
			s.CompletedTasks++
		} else {
			s.PendingTasks++
		}
	}
	return s
}

// VisibleTasks returns the actor's slice of the board, applying the perm
// package's area scoping (shared projects included for leader tiers).
func (db *DB) VisibleTasks(actor *model.Profile) []model.Task {
	var out []model.Task
	for i := range db.Tasks {
		t := &db.Tasks[i]
		if perm.VisibleTask(actor, t, db.ProjectShared(t)) {
			out = append(out, *t)
		}
	}
	return out
}

func (db *DB) VisibleProjects(actor *model.Profile) []model.Project {
	var out []model.Project
	for i := range db.Projects {
		if perm.VisibleProject(actor, &db.Projects[i]) {
			out = append(out, db.Projects[i])
		}
	}
	return out
}

// FilterTasks narrows tasks by status ("" or "all" keeps every status) and a
// case-insensitive search over title and description.
func FilterTasks(tasks []model.Task, status, query string) []model.Task {
	status = strings.TrimSpace(status)
	query = strings.ToLower(strings.TrimSpace(query))
	var out []model.Task
	for _, t := range tasks {
		if status != "" && status != "all" && string(t.Status) != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func FilterProjects(projects []model.Project, status, query string) []model.Project {
	status = strings.TrimSpace(status)
	query = strings.ToLower(strings.TrimSpace(query))
	var out []model.Project
	for _, p := range projects {
		if status != "" && status != "all" && string(p.Status) != status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

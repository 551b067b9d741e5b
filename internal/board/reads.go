package board

import (
	"promanager/internal/model"
	"promanager/internal/store"
)

// Tasks returns the tasks visible to the signed-in actor, newest first.
func (b *Board) Tasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.VisibleTasks(b.actor)
}

// TasksByStatus returns the actor-visible tasks in one kanban column.
func (b *Board) TasksByStatus(status model.Status) []model.Task {
	all := b.Tasks()
	out := make([]model.Task, 0, len(all))
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// TasksOn returns the actor-visible tasks due on a YYYY-MM-DD date.
func (b *Board) TasksOn(date string) []model.Task {
	all := b.Tasks()
	var out []model.Task
	for _, t := range all {
		if t.DueDate == date {
			out = append(out, t)
		}
	}
	return out
}

func (b *Board) Projects() []model.Project {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.VisibleProjects(b.actor)
}

func (b *Board) FindTask(id string) (model.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.db.FindTask(id)
	if !ok {
		return model.Task{}, false
	}
	return *t, true
}

func (b *Board) FindProject(id string) (model.Project, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.db.FindProject(id)
	if !ok {
		return model.Project{}, false
	}
	return *p, true
}

// Progress returns the completed percentage for a project, 0 when it has no
// tasks.
func (b *Board) Progress(projectID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.ProjectProgress(projectID)
}

func (b *Board) Stats() store.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.db.Stats()
}

// ProfileName resolves a profile id to something displayable, falling back
// to the raw id for unknown profiles.
func (b *Board) ProfileName(id string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.db.FindProfile(id)
	if !ok {
		return id
	}
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

func (b *Board) Profiles() []model.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Profile, len(b.db.Profiles))
	copy(out, b.db.Profiles)
	return out
}

func (b *Board) Areas() []model.Area {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Area, len(b.db.Areas))
	copy(out, b.db.Areas)
	return out
}

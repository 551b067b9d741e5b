package board

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"promanager/internal/backend"
	"promanager/internal/model"
	"promanager/internal/mutate"
	"promanager/internal/store"
)

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func taskFields(t model.Task) map[string]any {
	var approvedAt any
	if t.ApprovedAt != nil {
		approvedAt = t.ApprovedAt.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"title":       t.Title,
		"description": t.Description,
		"project_id":  nullable(t.ProjectID),
		"status":      string(t.Status),
		"approved":    nullable(t.Approved),
		"approved_by": nullable(t.ApprovedBy),
		"approved_at": approvedAt,
		"due_date":    t.DueDate,
		"assigned_to": nullable(t.AssignedTo),
	}
}

func projectFields(p model.Project) map[string]any {
	return map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"status":      string(p.Status),
		"is_shared":   p.IsShared,
	}
}

// mutateTask runs an optimistic store mutation, then persists the updated
// row. A failed backend write restores the snapshot taken before the store
// mutation.
func (b *Board) mutateTask(ctx context.Context, apply func(db *store.DB, actor *model.Profile) (model.Task, error)) (model.Task, error) {
	b.mu.Lock()
	snap := b.db.Snapshot()
	updated, err := apply(b.db, b.actor)
	b.mu.Unlock()
	if err != nil {
		return model.Task{}, err
	}
	b.notify()

	if _, err := b.backend.UpdateRow(ctx, backend.TableTasks, updated.ID, taskFields(updated)); err != nil {
		b.mu.Lock()
		b.db.Restore(snap)
		b.mu.Unlock()
		b.notify()
		return model.Task{}, err
	}
	return updated, nil
}

// MoveTask is the kanban drop path.
func (b *Board) MoveTask(ctx context.Context, taskID string, to model.Status) (model.Task, error) {
	return b.mutateTask(ctx, func(db *store.DB, actor *model.Profile) (model.Task, error) {
		return mutate.MoveTask(db, actor, taskID, to, b.now())
	})
}

// ToggleTask flips completion like the checkbox in the task list.
func (b *Board) ToggleTask(ctx context.Context, taskID string) (model.Task, error) {
	return b.mutateTask(ctx, func(db *store.DB, actor *model.Profile) (model.Task, error) {
		return mutate.ToggleTask(db, actor, taskID, b.now())
	})
}

// ApproveTask records a leader verdict; approved=false rejects.
func (b *Board) ApproveTask(ctx context.Context, taskID string, approved bool) (model.Task, error) {
	return b.mutateTask(ctx, func(db *store.DB, actor *model.Profile) (model.Task, error) {
		return mutate.ApproveTask(db, actor, taskID, approved, b.now())
	})
}

// UpdateTask applies edit-form fields, routing a status change through the
// lifecycle rules.
func (b *Board) UpdateTask(ctx context.Context, taskID string, draft mutate.TaskDraft) (model.Task, error) {
	return b.mutateTask(ctx, func(db *store.DB, actor *model.Profile) (model.Task, error) {
		return mutate.UpdateTask(db, actor, taskID, draft, b.now())
	})
}

// CreateTask shapes the row locally, inserts it through the backend and
// applies the confirmed row (with its backend-assigned id) to the store.
func (b *Board) CreateTask(ctx context.Context, draft mutate.TaskDraft) (model.Task, error) {
	b.mu.Lock()
	shaped, err := mutate.NewTask(b.db, b.actor, draft, b.now())
	b.mu.Unlock()
	if err != nil {
		return model.Task{}, err
	}

	fields := taskFields(shaped)
	fields["area_id"] = shaped.AreaID
	raw, err := b.backend.InsertRow(ctx, backend.TableTasks, fields)
	if err != nil {
		return model.Task{}, err
	}
	var confirmed model.Task
	if err := json.Unmarshal(raw, &confirmed); err != nil {
		return model.Task{}, fmt.Errorf("decode inserted task: %w", err)
	}
	b.mu.Lock()
	b.db.ApplyTaskInsert(confirmed)
	b.mu.Unlock()
	b.notify()
	return confirmed, nil
}

// DeleteTask removes the task optimistically and confirms with the backend.
func (b *Board) DeleteTask(ctx context.Context, taskID string) error {
	b.mu.Lock()
	snap := b.db.Snapshot()
	err := mutate.DeleteTask(b.db, b.actor, taskID)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.notify()

	if err := b.backend.DeleteRow(ctx, backend.TableTasks, taskID); err != nil {
		b.mu.Lock()
		b.db.Restore(snap)
		b.mu.Unlock()
		b.notify()
		return err
	}
	return nil
}

// CreateProject inserts a project through the backend.
func (b *Board) CreateProject(ctx context.Context, draft mutate.ProjectDraft) (model.Project, error) {
	b.mu.Lock()
	shaped, err := mutate.NewProject(b.actor, draft, b.now())
	b.mu.Unlock()
	if err != nil {
		return model.Project{}, err
	}

	fields := projectFields(shaped)
	fields["area_id"] = shaped.AreaID
	raw, err := b.backend.InsertRow(ctx, backend.TableProjects, fields)
	if err != nil {
		return model.Project{}, err
	}
	var confirmed model.Project
	if err := json.Unmarshal(raw, &confirmed); err != nil {
		return model.Project{}, fmt.Errorf("decode inserted project: %w", err)
	}
	b.mu.Lock()
	b.db.ApplyProjectInsert(confirmed)
	b.mu.Unlock()
	b.notify()
	return confirmed, nil
}

func (b *Board) UpdateProject(ctx context.Context, projectID string, draft mutate.ProjectDraft) (model.Project, error) {
	b.mu.Lock()
	snap := b.db.Snapshot()
	updated, err := mutate.UpdateProject(b.db, b.actor, projectID, draft, b.now())
	b.mu.Unlock()
	if err != nil {
		return model.Project{}, err
	}
	b.notify()

	if _, err := b.backend.UpdateRow(ctx, backend.TableProjects, projectID, projectFields(updated)); err != nil {
		b.mu.Lock()
		b.db.Restore(snap)
		b.mu.Unlock()
		b.notify()
		return model.Project{}, err
	}
	return updated, nil
}

// DeleteProject removes the project; the store and the backend both cascade
// to the project's tasks.
func (b *Board) DeleteProject(ctx context.Context, projectID string) error {
	b.mu.Lock()
	snap := b.db.Snapshot()
	err := mutate.DeleteProject(b.db, b.actor, projectID)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.notify()

	if err := b.backend.DeleteRow(ctx, backend.TableProjects, projectID); err != nil {
		b.mu.Lock()
		b.db.Restore(snap)
		b.mu.Unlock()
		b.notify()
		return err
	}
	return nil
}

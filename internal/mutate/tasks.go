package mutate

import (
	"strings"
	"time"

	"promanager/internal/lifecycle"
	"promanager/internal/model"
	"promanager/internal/perm"
	"promanager/internal/store"
)

func actorID(actor *model.Profile) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}

// MoveTask applies a kanban drop (or edit-form status change) to the local
// store and returns the updated row for the caller to persist. The row is
// applied optimistically; callers snapshot the store first and restore it if
// the backend write fails.
func MoveTask(db *store.DB, actor *model.Profile, taskID string, to model.Status, now time.Time) (model.Task, error) {
	t, ok := db.FindTask(taskID)
	if !ok {
		return model.Task{}, NotFoundError{Kind: "task", ID: taskID}
	}
	if !perm.CanMutateTask(actor, t) {
		return model.Task{}, PermissionDeniedError{ActorID: actorID(actor), Action: "move task"}
	}
	updated, err := lifecycle.Move(*t, to, now)
	if err != nil {
		return model.Task{}, err
	}
	db.ApplyTaskUpdate(updated)
	return updated, nil
}

// ToggleTask flips completion the way the task-list checkbox does, through
// the same approval-gate entry rule as a drop on the completed column.
func ToggleTask(db *store.DB, actor *model.Profile, taskID string, now time.Time) (model.Task, error) {
	t, ok := db.FindTask(taskID)
	if !ok {
		return model.Task{}, NotFoundError{Kind: "task", ID: taskID}
	}
	if !perm.CanMutateTask(actor, t) {
		return model.Task{}, PermissionDeniedError{ActorID: actorID(actor), Action: "toggle task"}
	}
	updated, err := lifecycle.Toggle(*t, now)
	if err != nil {
		return model.Task{}, err
	}
	db.ApplyTaskUpdate(updated)
	return updated, nil
}

// ApproveTask records a leader's verdict. approved=false demotes the task to
// progress while keeping the verdict fields.
func ApproveTask(db *store.DB, actor *model.Profile, taskID string, approved bool, now time.Time) (model.Task, error) {
	t, ok := db.FindTask(taskID)
	if !ok {
		return model.Task{}, NotFoundError{Kind: "task", ID: taskID}
	}
	if !perm.CanApprove(actor) {
		return model.Task{}, PermissionDeniedError{ActorID: actorID(actor), Action: "approve task"}
	}
	var (
		updated model.Task
		err     error
	)
	if approved {
		updated, err = lifecycle.Approve(*t, actor.ID, now)
	} else {
		updated, err = lifecycle.Reject(*t, actor.ID, now)
	}
	if err != nil {
		return model.Task{}, err
	}
	db.ApplyTaskUpdate(updated)
	return updated, nil
}

// TaskDraft carries the editable fields of a task form.
type TaskDraft struct {
	Title       string
	Description string
	ProjectID   string
	Status      model.Status
	DueDate     string
	AssignedTo  string
}

// NewTask validates a draft and shapes the row to send to the backend. The
// area is always the creator's home area; the backend assigns the id, so the
// caller inserts the confirmed row rather than an optimistic one.
func NewTask(db *store.DB, actor *model.Profile, draft TaskDraft, now time.Time) (model.Task, error) {
	if !perm.CanEditTasks(actor) {
		return model.Task{}, PermissionDeniedError{ActorID: actorID(actor), Action: "create task"}
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return model.Task{}, lifecycle.InvalidTransitionError{Reason: "task title required"}
	}
	status := draft.Status
	if status == "" {
		status = model.StatusPending
	}
	if !status.Valid() {
		return model.Task{}, lifecycle.InvalidTransitionError{To: status, Reason: "unknown status"}
	}

	t := model.Task{
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		Status:      status,
		DueDate:     strings.TrimSpace(draft.DueDate),
		AreaID:      actor.HomeAreaID(),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if pid := strings.TrimSpace(draft.ProjectID); pid != "" {
		if _, ok := db.FindProject(pid); !ok {
			return model.Task{}, NotFoundError{Kind: "project", ID: pid}
		}
		t.ProjectID = &pid
	}
	if a := strings.TrimSpace(draft.AssignedTo); a != "" {
		t.AssignedTo = &a
	}
	return t, nil
}

// UpdateTask applies edit-form fields (everything but status, which goes
// through MoveTask) optimistically.
func UpdateTask(db *store.DB, actor *model.Profile, taskID string, draft TaskDraft, now time.Time) (model.Task, error) {
	t, ok := db.FindTask(taskID)
	if !ok {
		return model.Task{}, NotFoundError{Kind: "task", ID: taskID}
	}
	if !perm.CanMutateTask(actor, t) {
		return model.Task{}, PermissionDeniedError{ActorID: actorID(actor), Action: "edit task"}
	}

	updated := *t
	if title := strings.TrimSpace(draft.Title); title != "" {
		updated.Title = title
	}
	updated.Description = strings.TrimSpace(draft.Description)
	updated.DueDate = strings.TrimSpace(draft.DueDate)
	if pid := strings.TrimSpace(draft.ProjectID); pid != "" {
		if _, ok := db.FindProject(pid); !ok {
			return model.Task{}, NotFoundError{Kind: "project", ID: pid}
		}
		updated.ProjectID = &pid
	} else {
		updated.ProjectID = nil
	}
	if a := strings.TrimSpace(draft.AssignedTo); a != "" {
		updated.AssignedTo = &a
	} else {
		updated.AssignedTo = nil
	}
	if draft.Status != "" && draft.Status != updated.Status {
		moved, err := lifecycle.Move(updated, draft.Status, now)
		if err != nil {
			return model.Task{}, err
		}
		updated = moved
	}
	updated.UpdatedAt = now.UTC()
	db.ApplyTaskUpdate(updated)
	return updated, nil
}

// DeleteTask removes the task optimistically.
func DeleteTask(db *store.DB, actor *model.Profile, taskID string) error {
	t, ok := db.FindTask(taskID)
	if !ok {
		return NotFoundError{Kind: "task", ID: taskID}
	}
	if !perm.CanMutateTask(actor, t) {
		return PermissionDeniedError{ActorID: actorID(actor), Action: "delete task"}
	}
	db.ApplyTaskDelete(taskID)
	return nil
}

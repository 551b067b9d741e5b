package lifecycle

import (
	"fmt"
	"time"

	"promanager/internal/model"
)

// Pure transition rules for the task status/approval lifecycle. Functions
// take a task by value and return the updated copy; callers apply the result
// through the store and persist it. No transition here touches I/O.
//
// The lifecycle states are pending, progress, and three completed shapes:
// completed with approved=nil (awaiting review), approved=true (final for
// this cycle) and approved=false (the recorded verdict of a rejection, which
// immediately demotes the task to progress; it is never a resting completed
// state).

// InvalidTransitionError reports a status change the lifecycle forbids.
// It is a per-operation, user-visible warning, never fatal.
type InvalidTransitionError struct {
	TaskID string
	From   model.Status
	To     model.Status
	Reason string
}

func (e InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot move task %s from %s to %s: %s", e.TaskID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot move task %s from %s to %s", e.TaskID, e.From, e.To)
}

const reasonPendingReview = "task is awaiting approval"

// Move applies a status change requested via the board (drag-and-drop) or an
// edit form.
//
// Rules:
//   - a pending-review task is frozen: every drop target is rejected,
//     including its own column;
//   - entering completed requests review: approved/approved_by/approved_at
//     reset to null;
//   - leaving completed through a normal move clears a recorded verdict, so
//     an approved task can never rest outside the completed column.
func Move(t model.Task, to model.Status, now time.Time) (model.Task, error) {
	if !to.Valid() {
		return t, InvalidTransitionError{TaskID: t.ID, From: t.Status, To: to, Reason: "unknown status"}
	}
	if t.PendingReview() {
		return t, InvalidTransitionError{TaskID: t.ID, From: t.Status, To: to, Reason: reasonPendingReview}
	}
	if t.Status == to {
		return t, nil
	}

	if to == model.StatusCompleted {
		requestReview(&t)
	} else {
		if t.Status == model.StatusCompleted {
			clearVerdict(&t)
		}
		t.Status = to
	}
	t.UpdatedAt = now.UTC()
	return t, nil
}

// Toggle flips completion the way a checkbox click does: a completed task
// returns to pending, anything else completes (entering review like any
// other completion).
func Toggle(t model.Task, now time.Time) (model.Task, error) {
	to := model.StatusCompleted
	if t.Status == model.StatusCompleted {
		to = model.StatusPending
	}
	return Move(t, to, now)
}

// Approve records a leader's positive verdict on a pending-review task.
// Terminal for this completion cycle.
func Approve(t model.Task, approverID string, now time.Time) (model.Task, error) {
	if !t.PendingReview() {
		return t, InvalidTransitionError{TaskID: t.ID, From: t.Status, To: model.StatusCompleted, Reason: "no review pending"}
	}
	yes := true
	ts := now.UTC()
	t.Approved = &yes
	t.ApprovedBy = &approverID
	t.ApprovedAt = &ts
	t.UpdatedAt = ts
	return t, nil
}

// Reject records a negative verdict and demotes the task to progress. The
// verdict fields stay on the row until the next completion resets them, so a
// progress task with approved=false reads as "previously rejected".
func Reject(t model.Task, approverID string, now time.Time) (model.Task, error) {
	if !t.PendingReview() {
		return t, InvalidTransitionError{TaskID: t.ID, From: t.Status, To: model.StatusProgress, Reason: "no review pending"}
	}
	no := false
	ts := now.UTC()
	t.Approved = &no
	t.ApprovedBy = &approverID
	t.ApprovedAt = &ts
	t.Status = model.StatusProgress
	t.UpdatedAt = ts
	return t, nil
}

func requestReview(t *model.Task) {
	t.Status = model.StatusCompleted
	t.Approved = nil
	t.ApprovedBy = nil
	t.ApprovedAt = nil
}

func clearVerdict(t *model.Task) {
	t.Approved = nil
	t.ApprovedBy = nil
	t.ApprovedAt = nil
}

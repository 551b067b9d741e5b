package lifecycle

import (
	"errors"
	"testing"
	"time"

	"promanager/internal/model"
)

var now = time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC)

func TestMove_FreeBetweenPendingAndProgress(t *testing.T) {
	task := model.Task{ID: "t1", Status: model.StatusPending}

	task, err := Move(task, model.StatusProgress, now)
	if err != nil {
		t.Fatalf("Move to progress: %v", err)
	}
	if task.Status != model.StatusProgress {
		t.Fatalf("status = %s, want progress", task.Status)
	}

	task, err = Move(task, model.StatusPending, now)
	if err != nil {
		t.Fatalf("Move back to pending: %v", err)
	}
	if task.Status != model.StatusPending {
		t.Fatalf("status = %s, want pending", task.Status)
	}
}

func TestMove_CompletionRequestsReview(t *testing.T) {
	yes := true
	by := "leader-1"
	at := now.Add(-time.Hour)
	task := model.Task{
		ID: "t1", Status: model.StatusProgress,
		Approved: &yes, ApprovedBy: &by, ApprovedAt: &at, // stale verdict from a prior cycle
	}

	task, err := Move(task, model.StatusCompleted, now)
	if err != nil {
		t.Fatalf("Move to completed: %v", err)
	}
	if !task.PendingReview() {
		t.Fatalf("expected completion to enter pending review")
	}
	if task.Approved != nil || task.ApprovedBy != nil || task.ApprovedAt != nil {
		t.Fatalf("expected approval fields reset on completion entry")
	}
}

func TestMove_PendingReviewIsFrozen(t *testing.T) {
	task := model.Task{ID: "t1", Status: model.StatusCompleted} // approved == nil

	for _, to := range []model.Status{model.StatusPending, model.StatusProgress, model.StatusCompleted} {
		got, err := Move(task, to, now)
		var ite InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("Move(%s) err = %v, want InvalidTransitionError", to, err)
		}
		if got.Status != model.StatusCompleted || got.Approved != nil {
			t.Fatalf("Move(%s) mutated a frozen task", to)
		}
	}
}

func TestMove_LeavingCompletedClearsVerdict(t *testing.T) {
	yes := true
	by := "leader-1"
	task := model.Task{ID: "t1", Status: model.StatusCompleted, Approved: &yes, ApprovedBy: &by, ApprovedAt: &now}

	task, err := Move(task, model.StatusProgress, now)
	if err != nil {
		t.Fatalf("Move approved task out of completed: %v", err)
	}
	if task.Status != model.StatusProgress {
		t.Fatalf("status = %s, want progress", task.Status)
	}
	if task.Approved != nil || task.ApprovedBy != nil || task.ApprovedAt != nil {
		t.Fatalf("expected verdict cleared when leaving completed")
	}
}

func TestToggle_RoundTripThroughReview(t *testing.T) {
	task := model.Task{ID: "t1", Status: model.StatusPending}

	task, err := Toggle(task, now)
	if err != nil {
		t.Fatalf("Toggle on: %v", err)
	}
	if !task.PendingReview() {
		t.Fatalf("expected toggled completion to await review")
	}

	// Frozen while pending review: the checkbox cannot un-complete it.
	if _, err := Toggle(task, now); err == nil {
		t.Fatalf("expected toggle of pending-review task to be rejected")
	}

	task, err = Approve(task, "leader-1", now)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	task, err = Toggle(task, now)
	if err != nil {
		t.Fatalf("Toggle off after approval: %v", err)
	}
	if task.Status != model.StatusPending || task.Approved != nil {
		t.Fatalf("expected approved task to reopen as pending with no verdict")
	}
}

func TestApprove(t *testing.T) {
	task := model.Task{ID: "t1", Status: model.StatusCompleted}

	task, err := Approve(task, "leader-1", now)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if task.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want completed", task.Status)
	}
	if task.Approved == nil || !*task.Approved {
		t.Fatalf("approved = %v, want true", task.Approved)
	}
	if task.ApprovedBy == nil || *task.ApprovedBy != "leader-1" {
		t.Fatalf("approvedBy = %v, want leader-1", task.ApprovedBy)
	}
	if task.ApprovedAt == nil || !task.ApprovedAt.Equal(now) {
		t.Fatalf("approvedAt = %v, want %v", task.ApprovedAt, now)
	}

	// Terminal for this cycle.
	if _, err := Approve(task, "leader-2", now); err == nil {
		t.Fatalf("expected second approval to be rejected")
	}
}

func TestReject_DemotesToProgressKeepingVerdict(t *testing.T) {
	task := model.Task{ID: "t1", Status: model.StatusCompleted}

	task, err := Reject(task, "leader-1", now)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if task.Status != model.StatusProgress {
		t.Fatalf("status = %s, want progress", task.Status)
	}
	if task.Approved == nil || *task.Approved {
		t.Fatalf("approved = %v, want false", task.Approved)
	}
	if !task.Rejected() {
		t.Fatalf("expected Rejected() to report the verdict")
	}

	// Never a resting completed·rejected state.
	if task.Status == model.StatusCompleted {
		t.Fatalf("rejection must not leave status completed")
	}

	// A later completion cycle resets the verdict to pending review.
	task, err = Move(task, model.StatusCompleted, now)
	if err != nil {
		t.Fatalf("re-complete after rejection: %v", err)
	}
	if !task.PendingReview() {
		t.Fatalf("expected re-completion to reset verdict to pending review")
	}
}

func TestRejectOrApproveRequiresPendingReview(t *testing.T) {
	for _, st := range []model.Status{model.StatusPending, model.StatusProgress} {
		task := model.Task{ID: "t1", Status: st}
		if _, err := Approve(task, "l", now); err == nil {
			t.Fatalf("Approve on %s task should fail", st)
		}
		if _, err := Reject(task, "l", now); err == nil {
			t.Fatalf("Reject on %s task should fail", st)
		}
	}
}

package board

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"promanager/internal/backend"
	"promanager/internal/model"
	"promanager/internal/mutate"
)

func ptr[T any](v T) *T { return &v }

func seedBoard(t *testing.T) (*Board, *backend.Memory) {
	t.Helper()
	mem := backend.NewMemory()
	mem.Seed(backend.TableAreas, model.Area{ID: "a1", Name: "Ops", Slug: "ops"})
	mem.Seed(backend.TableProfiles, model.Profile{ID: "leader-1", Email: "leader@x", Username: "Leader", Role: model.RoleAreaLeader, AreaID: ptr("a1")})
	mem.Seed(backend.TableProfiles, model.Profile{ID: "user-1", Email: "user@x", Username: "User", Role: model.RoleUser, AreaID: ptr("a1")})
	mem.Seed(backend.TableProjects, model.Project{ID: "p1", Name: "Launch", Status: model.StatusProgress, AreaID: "a1"})
	mem.Seed(backend.TableTasks, model.Task{ID: "t1", Title: "draft", Status: model.StatusPending, ProjectID: ptr("p1"), AreaID: "a1"})
	mem.Seed(backend.TableTasks, model.Task{ID: "t2", Title: "ship", Status: model.StatusProgress, ProjectID: ptr("p1"), AreaID: "a1", AssignedTo: ptr("user-1")})
	mem.Seed(backend.TableTasks, model.Task{ID: "t3", Title: "review budget", Status: model.StatusProgress, ProjectID: ptr("p1"), AreaID: "a1", AssignedTo: ptr("leader-1")})

	b := New(mem)
	if err := b.SignIn(context.Background(), "leader@x", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := b.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return b, mem
}

func TestSignInResolvesActor(t *testing.T) {
	b, _ := seedBoard(t)
	actor := b.Actor()
	if actor == nil || actor.ID != "leader-1" || actor.Role != model.RoleAreaLeader {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestLoadHydratesStore(t *testing.T) {
	b, _ := seedBoard(t)
	if got := len(b.Tasks()); got != 3 {
		t.Fatalf("expected 3 tasks, got %d", got)
	}
	if got := len(b.Projects()); got != 1 {
		t.Fatalf("expected 1 project, got %d", got)
	}
	if got := b.Progress("p1"); got != 0 {
		t.Fatalf("expected 0%% progress, got %d", got)
	}
}

func TestMoveTaskPersists(t *testing.T) {
	b, mem := seedBoard(t)
	ctx := context.Background()

	moved, err := b.MoveTask(ctx, "t1", model.StatusProgress)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Status != model.StatusProgress {
		t.Fatalf("unexpected status %s", moved.Status)
	}

	rows, _ := mem.FetchRows(ctx, backend.TableTasks, nil)
	var found bool
	for _, raw := range rows {
		var row model.Task
		json.Unmarshal(raw, &row)
		if row.ID == "t1" {
			found = true
			if row.Status != model.StatusProgress {
				t.Fatalf("backend row not updated: %s", row.Status)
			}
		}
	}
	if !found {
		t.Fatal("task missing from backend")
	}
}

func TestMoveTaskRevertsOnBackendFailure(t *testing.T) {
	b, mem := seedBoard(t)
	mem.FailNext(&backend.Error{Op: "update", Status: 500, Message: "boom"})

	_, err := b.MoveTask(context.Background(), "t1", model.StatusProgress)
	if err == nil {
		t.Fatal("expected backend error")
	}

	task, ok := b.FindTask("t1")
	if !ok {
		t.Fatal("task vanished")
	}
	if task.Status != model.StatusPending {
		t.Fatalf("expected revert to pending, got %s", task.Status)
	}
}

func TestPermissionErrorSkipsBackend(t *testing.T) {
	b, mem := seedBoard(t)
	if err := b.SignIn(context.Background(), "user@x", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	// Arm a failure that must never fire: a denied move stops before the
	// backend write.
	mem.FailNext(errors.New("should not be reached"))

	_, err := b.MoveTask(context.Background(), "t3", model.StatusProgress)
	var denied mutate.PermissionDeniedError
	if err == nil || !errors.As(err, &denied) {
		t.Fatalf("expected permission denied for assigned task, got %v", err)
	}
}

func TestApprovalCycleThroughBoard(t *testing.T) {
	b, _ := seedBoard(t)
	ctx := context.Background()

	if _, err := b.MoveTask(ctx, "t2", model.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	task, _ := b.FindTask("t2")
	if !task.PendingReview() {
		t.Fatalf("expected pending review, got %+v", task)
	}

	rejected, err := b.ApproveTask(ctx, "t2", false)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != model.StatusProgress || rejected.Approved == nil || *rejected.Approved {
		t.Fatalf("unexpected rejection result: %+v", rejected)
	}

	if _, err := b.MoveTask(ctx, "t2", model.StatusCompleted); err != nil {
		t.Fatalf("re-complete: %v", err)
	}
	approved, err := b.ApproveTask(ctx, "t2", true)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Approved == nil || !*approved.Approved || approved.ApprovedBy == nil || *approved.ApprovedBy != "leader-1" {
		t.Fatalf("unexpected approval result: %+v", approved)
	}
}

func TestCreateTaskUsesBackendID(t *testing.T) {
	b, _ := seedBoard(t)

	created, err := b.CreateTask(context.Background(), mutate.TaskDraft{Title: "new work", ProjectID: "p1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected backend-assigned id")
	}
	if created.AreaID != "a1" {
		t.Fatalf("expected creator's area, got %q", created.AreaID)
	}
	if _, ok := b.FindTask(created.ID); !ok {
		t.Fatal("created task missing from store")
	}
}

func TestRemoteChangesFunnelIntoStore(t *testing.T) {
	b, mem := seedBoard(t)
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer b.Close()

	watch, stop := b.Watch()
	defer stop()

	remote, _ := json.Marshal(model.Task{ID: "t9", Title: "from elsewhere", Status: model.StatusPending, AreaID: "a1"})
	mem.Emit(backend.Change{Type: backend.ChangeInsert, Table: backend.TableTasks, New: remote})

	select {
	case <-watch:
	case <-time.After(time.Second):
		t.Fatal("no watch signal after remote change")
	}
	if _, ok := b.FindTask("t9"); !ok {
		t.Fatal("remote insert not applied")
	}

	// Duplicate insert stays idempotent.
	mem.Emit(backend.Change{Type: backend.ChangeInsert, Table: backend.TableTasks, New: remote})
	if got := len(b.Tasks()); got != 4 {
		t.Fatalf("expected 4 tasks after duplicate insert, got %d", got)
	}

	mem.Emit(backend.Change{Type: backend.ChangeDelete, Table: backend.TableTasks, Old: remote})
	if _, ok := b.FindTask("t9"); ok {
		t.Fatal("remote delete not applied")
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	b, _ := seedBoard(t)
	if err := b.DeleteProject(context.Background(), "p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := len(b.Tasks()); got != 0 {
		t.Fatalf("expected cascade to clear tasks, got %d", got)
	}
}

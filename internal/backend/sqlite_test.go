package backend

import (
	"context"
	"encoding/json"
	"testing"

	"promanager/internal/model"
)

func TestLocalTaskRoundTrip(t *testing.T) {
	l, err := OpenLocalMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	raw, err := l.InsertRow(ctx, TableTasks, map[string]any{
		"title": "write report", "status": "pending", "area_id": "a1", "due_date": "2026-09-15",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	var task model.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.ID == "" {
		t.Fatal("expected generated id")
	}
	if task.Status != model.StatusPending || task.Approved != nil {
		t.Fatalf("unexpected row: %+v", task)
	}

	raw, err = l.UpdateRow(ctx, TableTasks, task.ID, map[string]any{
		"status": "completed", "approved": nil, "approved_by": nil, "approved_at": nil,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := json.Unmarshal(raw, &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Status != model.StatusCompleted || task.Approved != nil {
		t.Fatalf("expected completed pending review, got %+v", task)
	}

	raw, err = l.UpdateRow(ctx, TableTasks, task.ID, map[string]any{"approved": false, "approved_by": "leader"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := json.Unmarshal(raw, &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.Approved == nil || *task.Approved {
		t.Fatalf("expected approved=false, got %+v", task.Approved)
	}
	if task.ApprovedBy == nil || *task.ApprovedBy != "leader" {
		t.Fatalf("expected approved_by=leader, got %+v", task.ApprovedBy)
	}
}

func TestLocalFetchFilterAndOrder(t *testing.T) {
	l, err := OpenLocalMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	for _, a := range []string{"a1", "a1", "a2"} {
		if _, err := l.InsertRow(ctx, TableTasks, map[string]any{"title": "t", "status": "pending", "area_id": a}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	rows, err := l.FetchRows(ctx, TableTasks, Filter{"area_id": "a1"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestLocalUpdateMissing(t *testing.T) {
	l, err := OpenLocalMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	_, err = l.UpdateRow(context.Background(), TableTasks, "nope", map[string]any{"title": "x"})
	be, ok := err.(*Error)
	if !ok || be.Status != 404 {
		t.Fatalf("expected 404 backend error, got %v", err)
	}
}

func TestLocalDeleteProjectCascades(t *testing.T) {
	l, err := OpenLocalMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	raw, err := l.InsertRow(ctx, TableProjects, map[string]any{"name": "p", "status": "active", "area_id": "a1"})
	if err != nil {
		t.Fatalf("insert project: %v", err)
	}
	projectID := rowID(raw)
	if _, err := l.InsertRow(ctx, TableTasks, map[string]any{"title": "t", "status": "pending", "project_id": projectID, "area_id": "a1"}); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	var taskDeletes int
	cancel, err := l.Subscribe(ctx, TableTasks, func(ch Change) {
		if ch.Type == ChangeDelete {
			taskDeletes++
		}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := l.DeleteRow(ctx, TableProjects, projectID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if taskDeletes != 1 {
		t.Fatalf("expected 1 cascaded task delete change, got %d", taskDeletes)
	}
	rows, err := l.FetchRows(ctx, TableTasks, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected cascade to remove tasks, got %d", len(rows))
	}
}

func TestLocalSubscribeLoopback(t *testing.T) {
	l, err := OpenLocalMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	var got []Change
	cancel, err := l.Subscribe(ctx, TableTasks, func(ch Change) { got = append(got, ch) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	raw, err := l.InsertRow(ctx, TableTasks, map[string]any{"title": "t", "status": "pending", "area_id": "a1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	id := rowID(raw)
	if _, err := l.UpdateRow(ctx, TableTasks, id, map[string]any{"status": "progress"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	cancel()
	if err := l.DeleteRow(ctx, TableTasks, id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 changes before cancel, got %d", len(got))
	}
	if got[0].Type != ChangeInsert || got[1].Type != ChangeUpdate {
		t.Fatalf("unexpected change sequence: %v %v", got[0].Type, got[1].Type)
	}
	if got[1].Old == nil {
		t.Fatal("update change missing old row")
	}
}

func TestLocalSignIn(t *testing.T) {
	l, err := OpenLocalMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	if _, err := l.SignIn(ctx, "ghost@demo.local", ""); err == nil {
		t.Fatal("expected sign-in failure for unknown profile")
	}

	if _, err := l.InsertRow(ctx, TableProfiles, map[string]any{"email": "user@demo.local", "role": "user"}); err != nil {
		t.Fatalf("insert profile: %v", err)
	}
	s, err := l.SignIn(ctx, "User@Demo.Local", "")
	if err != nil {
		t.Fatalf("sign-in: %v", err)
	}
	if !s.Valid() || s.Email != "user@demo.local" {
		t.Fatalf("unexpected session: %+v", s)
	}

	got, err := l.GetSession(ctx)
	if err != nil || got == nil || got.UserID != s.UserID {
		t.Fatalf("get session: %v %+v", err, got)
	}
	if err := l.SignOut(ctx); err != nil {
		t.Fatalf("sign-out: %v", err)
	}
	if got, _ := l.GetSession(ctx); got != nil {
		t.Fatal("expected cleared session")
	}
}

func TestSeedDemo(t *testing.T) {
	l, err := OpenLocalMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	if err := SeedDemo(ctx, l); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tasks, err := l.FetchRows(ctx, TableTasks, nil)
	if err != nil {
		t.Fatalf("fetch tasks: %v", err)
	}
	if len(tasks) != 5 {
		t.Fatalf("expected 5 demo tasks, got %d", len(tasks))
	}
	profiles, err := l.FetchRows(ctx, TableProfiles, nil)
	if err != nil {
		t.Fatalf("fetch profiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 demo profiles, got %d", len(profiles))
	}
}

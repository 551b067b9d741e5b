package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"promanager/internal/model"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("command failed: promanager %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	return stdout
}

func decodeTasks(t *testing.T, raw string) []model.Task {
	t.Helper()
	var env struct {
		Data []model.Task `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal tasks: %v\nstdout:\n%s", err, raw)
	}
	return env.Data
}

func decodeTask(t *testing.T, raw string) model.Task {
	t.Helper()
	var env struct {
		Data model.Task `json:"data"`
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal task: %v\nstdout:\n%s", err, raw)
	}
	return env.Data
}

func seededDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustRun(t, "--local", "--state-dir", dir, "seed")
	mustRun(t, "--local", "--state-dir", dir, "login", "--email", "leader@demo.local", "--password", "x")
	return dir
}

func TestCLISeedLoginAndList(t *testing.T) {
	dir := seededDir(t)

	out := mustRun(t, "--local", "--state-dir", dir, "tasks", "list")
	tasks := decodeTasks(t, out)
	if len(tasks) != 5 {
		t.Fatalf("expected 5 seeded tasks, got %d", len(tasks))
	}

	out = mustRun(t, "--local", "--state-dir", dir, "tasks", "list", "--status", "completed")
	for _, task := range decodeTasks(t, out) {
		if task.Status != model.StatusCompleted {
			t.Fatalf("status filter leaked task %q with status %s", task.Title, task.Status)
		}
	}

	out = mustRun(t, "--local", "--state-dir", dir, "tasks", "list", "--query", "dns")
	queried := decodeTasks(t, out)
	if len(queried) != 1 || queried[0].Title != "Migrate DNS records" {
		t.Fatalf("unexpected query result: %+v", queried)
	}
}

func TestCLIRequiresLogin(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "--local", "--state-dir", dir, "seed")

	_, stderr, err := runCLI(t, "--local", "--state-dir", dir, "tasks", "list")
	if err == nil {
		t.Fatal("expected tasks list to fail without a session")
	}
	if !strings.Contains(stderr, "not signed in") {
		t.Fatalf("expected login hint, got: %s", stderr)
	}
}

func TestCLITaskLifecycle(t *testing.T) {
	dir := seededDir(t)

	out := mustRun(t, "--local", "--state-dir", dir, "tasks", "add", "--title", "Ship the beta")
	created := decodeTask(t, out)
	if created.ID == "" || created.Status != model.StatusPending {
		t.Fatalf("unexpected created task: %+v", created)
	}

	out = mustRun(t, "--local", "--state-dir", dir, "tasks", "move", created.ID, "--to", "progress")
	if got := decodeTask(t, out); got.Status != model.StatusProgress {
		t.Fatalf("expected progress after move, got %s", got.Status)
	}

	out = mustRun(t, "--local", "--state-dir", dir, "tasks", "complete", created.ID)
	moved := decodeTask(t, out)
	if moved.Status != model.StatusCompleted || moved.Approved != nil {
		t.Fatalf("expected completed pending review, got %+v", moved)
	}

	out = mustRun(t, "--local", "--state-dir", dir, "tasks", "reject", created.ID)
	rejected := decodeTask(t, out)
	if rejected.Status != model.StatusProgress {
		t.Fatalf("expected reject to demote to progress, got %s", rejected.Status)
	}
	if rejected.Approved == nil || *rejected.Approved {
		t.Fatalf("expected approved=false after reject, got %+v", rejected.Approved)
	}

	mustRun(t, "--local", "--state-dir", dir, "tasks", "complete", created.ID)
	out = mustRun(t, "--local", "--state-dir", dir, "tasks", "approve", created.ID)
	approved := decodeTask(t, out)
	if approved.Approved == nil || !*approved.Approved {
		t.Fatalf("expected approved=true, got %+v", approved.Approved)
	}

	mustRun(t, "--local", "--state-dir", dir, "tasks", "rm", created.ID)
	out = mustRun(t, "--local", "--state-dir", dir, "tasks", "list")
	for _, task := range decodeTasks(t, out) {
		if task.ID == created.ID {
			t.Fatal("deleted task still listed")
		}
	}
}

func TestCLIFrozenTaskMoveFails(t *testing.T) {
	dir := seededDir(t)

	out := mustRun(t, "--local", "--state-dir", dir, "tasks", "add", "--title", "Frozen one")
	created := decodeTask(t, out)
	mustRun(t, "--local", "--state-dir", dir, "tasks", "complete", created.ID)

	_, stderr, err := runCLI(t, "--local", "--state-dir", dir, "tasks", "move", created.ID, "--to", "pending")
	if err == nil {
		t.Fatal("expected move of a pending-review task to fail")
	}
	if !strings.Contains(stderr, "awaiting approval") {
		t.Fatalf("expected frozen-task error, got: %s", stderr)
	}
}

func TestCLIProjectsAndStats(t *testing.T) {
	dir := seededDir(t)

	out := mustRun(t, "--local", "--state-dir", dir, "projects", "add", "--name", "Internal Tools", "--shared")
	var projEnv struct {
		Data model.Project `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &projEnv); err != nil {
		t.Fatalf("unmarshal project: %v\nstdout:\n%s", err, out)
	}
	if projEnv.Data.ID == "" || !projEnv.Data.IsShared {
		t.Fatalf("unexpected created project: %+v", projEnv.Data)
	}

	out = mustRun(t, "--local", "--state-dir", dir, "stats")
	var statsEnv struct {
		Data struct {
			TotalProjects int `json:"total_projects"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &statsEnv); err != nil {
		t.Fatalf("unmarshal stats: %v\nstdout:\n%s", err, out)
	}
	if statsEnv.Data.TotalProjects != 3 {
		t.Fatalf("expected 3 projects, got %d", statsEnv.Data.TotalProjects)
	}

	mustRun(t, "--local", "--state-dir", dir, "projects", "rm", projEnv.Data.ID)
}

func TestCLITableFormat(t *testing.T) {
	dir := seededDir(t)

	out := mustRun(t, "--local", "--state-dir", dir, "--format", "table", "tasks", "list")
	if !strings.Contains(out, "TITLE") || !strings.Contains(out, "Draft landing page copy") {
		t.Fatalf("expected table output, got:\n%s", out)
	}

	out = mustRun(t, "--local", "--state-dir", dir, "--format", "table", "projects", "list")
	if !strings.Contains(out, "PROGRESS") || !strings.Contains(out, "Website Relaunch") {
		t.Fatalf("expected project table, got:\n%s", out)
	}
}

func TestCLIWhoamiAndLogout(t *testing.T) {
	dir := seededDir(t)

	out := mustRun(t, "--local", "--state-dir", dir, "whoami")
	var env struct {
		Data model.Profile `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("unmarshal profile: %v\nstdout:\n%s", err, out)
	}
	if env.Data.Email != "leader@demo.local" || env.Data.Role != model.RoleAreaLeader {
		t.Fatalf("unexpected actor: %+v", env.Data)
	}

	mustRun(t, "--local", "--state-dir", dir, "logout")
	if _, _, err := runCLI(t, "--local", "--state-dir", dir, "whoami"); err == nil {
		t.Fatal("expected whoami to fail after logout")
	}
}

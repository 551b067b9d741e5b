package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"promanager/internal/backend"
	"promanager/internal/board"
	"promanager/internal/model"
)

func ptr[T any](v T) *T { return &v }

func newTestServer(t *testing.T) (*Server, http.Handler, *board.Board) {
	t.Helper()
	mem := backend.NewMemory()
	mem.Seed(backend.TableAreas, model.Area{ID: "a1", Name: "Ops", Slug: "ops"})
	mem.Seed(backend.TableProfiles, model.Profile{ID: "leader-1", Email: "leader@x", Username: "Leader", Role: model.RoleAreaLeader, AreaID: ptr("a1")})
	mem.Seed(backend.TableProfiles, model.Profile{ID: "viewer-1", Email: "viewer@x", Username: "Viewer", Role: model.RoleViewer, AreaID: ptr("a1")})
	mem.Seed(backend.TableProjects, model.Project{ID: "p1", Name: "Launch", Status: model.StatusProgress, AreaID: "a1"})
	mem.Seed(backend.TableTasks, model.Task{ID: "t1", Title: "draft", Status: model.StatusPending, ProjectID: ptr("p1"), AreaID: "a1"})

	b := board.New(mem)
	srv, err := NewServer(ServerConfig{Addr: "127.0.0.1:0", StateDir: t.TempDir(), SessionTTL: time.Hour}, b)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, srv.Handler(), b
}

func signIn(t *testing.T, h http.Handler, email string) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {email}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("login failed: %d %s %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func doReq(h http.Handler, method, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBoardRedirectsAnonymous(t *testing.T) {
	_, h, _ := newTestServer(t)
	rec := doReq(h, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestBoardPageRenders(t *testing.T) {
	_, h, _ := newTestServer(t)
	cookie := signIn(t, h, "leader@x")

	rec := doReq(h, http.MethodGet, "/", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"In Progress", "draft", "Leader", "board-main"} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestTaskMoveEndpoint(t *testing.T) {
	_, h, b := newTestServer(t)
	cookie := signIn(t, h, "leader@x")

	rec := doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"progress"}}, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	task, ok := b.FindTask("t1")
	if !ok || task.Status != model.StatusProgress {
		t.Fatalf("move not applied: %+v", task)
	}

	rec = doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"sideways"}}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", rec.Code)
	}
}

func TestFrozenTaskMoveConflicts(t *testing.T) {
	_, h, _ := newTestServer(t)
	cookie := signIn(t, h, "leader@x")

	if rec := doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"completed"}}, cookie); rec.Code != http.StatusNoContent {
		t.Fatalf("complete failed: %d", rec.Code)
	}
	rec := doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"pending"}}, cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for frozen task, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApprovalEndpoints(t *testing.T) {
	_, h, b := newTestServer(t)
	cookie := signIn(t, h, "leader@x")

	doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"completed"}}, cookie)
	rec := doReq(h, http.MethodPost, "/tasks/t1/reject", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("reject failed: %d %s", rec.Code, rec.Body.String())
	}
	task, _ := b.FindTask("t1")
	if task.Status != model.StatusProgress || !task.Rejected() {
		t.Fatalf("unexpected state after reject: %+v", task)
	}

	doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"completed"}}, cookie)
	rec = doReq(h, http.MethodPost, "/tasks/t1/approve", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("approve failed: %d %s", rec.Code, rec.Body.String())
	}
	task, _ = b.FindTask("t1")
	if task.Approved == nil || !*task.Approved {
		t.Fatalf("unexpected state after approve: %+v", task)
	}
}

func TestViewerDeniedMutation(t *testing.T) {
	_, h, _ := newTestServer(t)
	cookie := signIn(t, h, "viewer@x")

	rec := doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"progress"}}, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for viewer, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStaleCookieRejectedAfterActorSwitch(t *testing.T) {
	_, h, _ := newTestServer(t)
	leaderCookie := signIn(t, h, "leader@x")
	_ = signIn(t, h, "viewer@x")

	rec := doReq(h, http.MethodPost, "/tasks/t1/move", url.Values{"to": {"progress"}}, leaderCookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale cookie, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, h, _ := newTestServer(t)
	cookie := signIn(t, h, "leader@x")

	rec := doReq(h, http.MethodGet, "/stats", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"total_projects":1`) {
		t.Fatalf("unexpected stats body: %s", rec.Body.String())
	}
}

func TestProjectCreateAndPage(t *testing.T) {
	_, h, b := newTestServer(t)
	cookie := signIn(t, h, "leader@x")

	rec := doReq(h, http.MethodPost, "/projects", url.Values{"name": {"Docs"}, "is_shared": {"on"}}, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := len(b.Projects()); got != 2 {
		t.Fatalf("expected 2 projects, got %d", got)
	}

	rec = doReq(h, http.MethodGet, "/projects", nil, cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Docs") {
		t.Fatalf("projects page missing new project: %d", rec.Code)
	}
}

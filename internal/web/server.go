// Package web serves the browser dashboard: server-rendered kanban board and
// project views over a board controller, with a datastar SSE stream pushing
// re-renders whenever the underlying store changes.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"promanager/internal/backend"
	"promanager/internal/board"
	"promanager/internal/lifecycle"
	"promanager/internal/model"
	"promanager/internal/mutate"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type ServerConfig struct {
	Addr       string
	StateDir   string
	SessionTTL time.Duration
}

type Server struct {
	mu   sync.RWMutex
	cfg  ServerConfig
	tmpl *template.Template

	board *board.Board
}

func NewServer(cfg ServerConfig, b *board.Board) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.StateDir = strings.TrimSpace(cfg.StateDir)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.StateDir == "" {
		return nil, errors.New("web: state dir is empty")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, tmpl: tmpl, board: b}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /static/app.js", s.handleAppJS)
	mux.HandleFunc("GET /login", s.handleLoginGet)
	mux.HandleFunc("POST /login", s.handleLoginPost)
	mux.HandleFunc("POST /logout", s.handleLogoutPost)
	mux.HandleFunc("GET /", s.handleBoard)
	mux.HandleFunc("GET /events", s.handleBoardEvents)
	mux.HandleFunc("GET /projects", s.handleProjects)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("POST /tasks", s.handleTaskCreate)
	mux.HandleFunc("POST /tasks/{taskId}/move", s.handleTaskMove)
	mux.HandleFunc("POST /tasks/{taskId}/toggle", s.handleTaskToggle)
	mux.HandleFunc("POST /tasks/{taskId}/approve", s.handleTaskApprove)
	mux.HandleFunc("POST /tasks/{taskId}/reject", s.handleTaskReject)
	mux.HandleFunc("POST /tasks/{taskId}/edit", s.handleTaskEdit)
	mux.HandleFunc("DELETE /tasks/{taskId}", s.handleTaskDelete)
	mux.HandleFunc("POST /projects", s.handleProjectCreate)
	mux.HandleFunc("POST /projects/{projectId}/edit", s.handleProjectEdit)
	mux.HandleFunc("DELETE /projects/{projectId}", s.handleProjectDelete)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"ok":true}`)
}

func (s *Server) serveStatic(w http.ResponseWriter, name, contentType string) {
	b, err := assetsFS.ReadFile(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(b)
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	s.serveStatic(w, "static/app.css", "text/css; charset=utf-8")
}

func (s *Server) handleAppJS(w http.ResponseWriter, r *http.Request) {
	s.serveStatic(w, "static/app.js", "text/javascript; charset=utf-8")
}

// actorForRequest verifies the session cookie and returns the signed-in
// profile, nil when the request carries no valid session.
func (s *Server) actorForRequest(r *http.Request) *model.Profile {
	actor := s.board.Actor()
	if actor == nil {
		return nil
	}
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	secret, err := loadOrInitSecretKey(s.cfg.StateDir)
	if err != nil {
		return nil
	}
	sp, err := verifyToken(secret, c.Value)
	if err != nil || sp.Sub != actor.ID {
		return nil
	}
	return actor
}

func (s *Server) requireActor(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
	actor := s.actorForRequest(r)
	if actor == nil {
		http.Error(w, "not signed in", http.StatusUnauthorized)
		return nil, false
	}
	return actor, true
}

// writeMutationError maps domain errors onto HTTP statuses. Backend failures
// surface as 502 so the browser can distinguish "you can't" from "the
// service is down".
func writeMutationError(w http.ResponseWriter, err error) {
	var denied mutate.PermissionDeniedError
	var notFound mutate.NotFoundError
	var invalid lifecycle.InvalidTransitionError
	var be *backend.Error
	switch {
	case errors.As(err, &denied):
		http.Error(w, denied.Error(), http.StatusUnauthorized)
	case errors.As(err, &notFound):
		http.Error(w, notFound.Error(), http.StatusNotFound)
	case errors.As(err, &invalid):
		http.Error(w, invalid.Error(), http.StatusConflict)
	case errors.As(err, &be):
		http.Error(w, be.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// --- auth handlers ---

func (s *Server) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "login.html", map[string]any{
		"Error": r.URL.Query().Get("error"),
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		http.Redirect(w, r, "/login?error=missing+credentials", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()
	if err := s.board.SignIn(ctx, email, password); err != nil {
		http.Redirect(w, r, "/login?error=sign-in+failed", http.StatusSeeOther)
		return
	}
	if err := s.board.Load(ctx); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	actor := s.board.Actor()
	secret, err := loadOrInitSecretKey(s.cfg.StateDir)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	token, err := newSessionToken(secret, actor.ID, s.cfg.SessionTTL)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.SessionTTL / time.Second),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogoutPost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	_ = s.board.SignOut(ctx)
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// --- pages ---

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	actor := s.actorForRequest(r)
	if actor == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "board.html", s.boardVM(actor)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	actor := s.actorForRequest(r)
	if actor == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "projects.html", s.projectsVM(actor)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	st := s.board.Stats()
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"total_projects":%d,"active_projects":%d,"completed_tasks":%d,"pending_tasks":%d}`,
		st.TotalProjects, st.ActiveProjects, st.CompletedTasks, st.PendingTasks)
}

// handleBoardEvents streams board re-renders over datastar SSE. The stream
// fires on every store change, local or remote.
func (s *Server) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.requireActor(w, r)
	if !ok {
		return
	}
	sse := datastar.NewSSE(w, r)

	ch, cancel := s.board.Watch()
	defer cancel()

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			html, err := s.renderBoardMain(actor)
			if err != nil {
				_ = sse.ExecuteScript(fmt.Sprintf(`console.error(%q)`, err.Error()))
				continue
			}
			_ = sse.PatchElements(html, datastar.WithSelector("#board-main"), datastar.WithMode(datastar.ElementPatchModeOuter))
		}
	}
}

func (s *Server) renderBoardMain(actor *model.Profile) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "board_main", s.boardVM(actor)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// --- task handlers ---

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	draft := mutate.TaskDraft{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		ProjectID:   r.FormValue("project_id"),
		DueDate:     r.FormValue("due_date"),
		AssignedTo:  r.FormValue("assigned_to"),
	}
	if st := strings.TrimSpace(r.FormValue("status")); st != "" {
		parsed, err := model.ParseStatus(st)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		draft.Status = parsed
	}
	if _, err := s.board.CreateTask(r.Context(), draft); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskMove(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	to, err := model.ParseStatus(r.FormValue("to"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.board.MoveTask(r.Context(), r.PathValue("taskId"), to); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskToggle(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	if _, err := s.board.ToggleTask(r.Context(), r.PathValue("taskId")); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskApprove(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	if _, err := s.board.ApproveTask(r.Context(), r.PathValue("taskId"), true); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskReject(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	if _, err := s.board.ApproveTask(r.Context(), r.PathValue("taskId"), false); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskEdit(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	draft := mutate.TaskDraft{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		ProjectID:   r.FormValue("project_id"),
		DueDate:     r.FormValue("due_date"),
		AssignedTo:  r.FormValue("assigned_to"),
	}
	if st := strings.TrimSpace(r.FormValue("status")); st != "" {
		parsed, err := model.ParseStatus(st)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		draft.Status = parsed
	}
	if _, err := s.board.UpdateTask(r.Context(), r.PathValue("taskId"), draft); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	if err := s.board.DeleteTask(r.Context(), r.PathValue("taskId")); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- project handlers ---

func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	draft := mutate.ProjectDraft{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		IsShared:    r.FormValue("is_shared") == "on" || r.FormValue("is_shared") == "true",
	}
	if st := strings.TrimSpace(r.FormValue("status")); st != "" {
		parsed, err := model.ParseStatus(st)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		draft.Status = parsed
	}
	if _, err := s.board.CreateProject(r.Context(), draft); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectEdit(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	draft := mutate.ProjectDraft{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		IsShared:    r.FormValue("is_shared") == "on" || r.FormValue("is_shared") == "true",
	}
	if st := strings.TrimSpace(r.FormValue("status")); st != "" {
		parsed, err := model.ParseStatus(st)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		draft.Status = parsed
	}
	if _, err := s.board.UpdateProject(r.Context(), r.PathValue("projectId"), draft); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireActor(w, r); !ok {
		return
	}
	if err := s.board.DeleteProject(r.Context(), r.PathValue("projectId")); err != nil {
		writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

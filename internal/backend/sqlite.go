package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"promanager/internal/model"
)

// Local is a single-user backend over a sqlite file, used by --local mode
// and as the dev backend. It implements the same contract as the hosted
// service, including the change feed: every write fans out a loopback
// Change to in-process subscribers, so the reconciler path is identical in
// both modes.
//
// Auth is intentionally thin: sign-in resolves the email against the
// profiles table and mints a synthetic session. There is no password check;
// the sqlite file is the trust boundary.
type Local struct {
	db   *sql.DB
	path string

	mu      sync.Mutex
	subs    map[string][]func(Change)
	session *Session
}

func OpenLocal(path string) (*Local, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	l := &Local{db: db, path: path, subs: map[string][]func(Change){}}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return l, nil
}

// OpenLocalMemory opens an in-memory local backend for tests.
func OpenLocalMemory() (*Local, error) {
	return OpenLocal(":memory:")
}

func (l *Local) Close() error {
	return l.db.Close()
}

func (l *Local) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS areas (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			area_id TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS profile_areas (
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			area_id TEXT NOT NULL REFERENCES areas(id) ON DELETE CASCADE,
			PRIMARY KEY (profile_id, area_id)
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			area_id TEXT NOT NULL DEFAULT '',
			is_shared INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			project_id TEXT REFERENCES projects(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			approved INTEGER,
			approved_by TEXT,
			approved_at TEXT,
			due_date TEXT NOT NULL DEFAULT '',
			area_id TEXT NOT NULL DEFAULT '',
			assigned_to TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_area ON tasks(area_id);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_area ON projects(area_id);`,
	}
	for _, s := range stmts {
		if _, err := l.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (l *Local) notify(ch Change) {
	l.mu.Lock()
	cbs := append([]func(Change){}, l.subs[ch.Table]...)
	l.mu.Unlock()
	for _, fn := range cbs {
		if fn != nil {
			fn(ch)
		}
	}
}

func (l *Local) Subscribe(ctx context.Context, table string, onChange func(Change)) (func(), error) {
	table = strings.TrimSpace(table)
	l.mu.Lock()
	l.subs[table] = append(l.subs[table], onChange)
	idx := len(l.subs[table]) - 1
	l.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if cbs := l.subs[table]; idx < len(cbs) {
				cbs[idx] = nil
			}
		})
	}
	return cancel, nil
}

// --- row scanning ---

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func scanNullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func (l *Local) scanTask(row interface{ Scan(...any) error }) (model.Task, error) {
	var t model.Task
	var projectID, approvedBy, approvedAt, assignedTo sql.NullString
	var approved sql.NullInt64
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &projectID, &t.Status,
		&approved, &approvedBy, &approvedAt, &t.DueDate, &t.AreaID, &assignedTo,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Task{}, err
	}
	t.ProjectID = scanNullStr(projectID)
	t.ApprovedBy = scanNullStr(approvedBy)
	t.AssignedTo = scanNullStr(assignedTo)
	if approved.Valid {
		b := approved.Int64 != 0
		t.Approved = &b
	}
	if approvedAt.Valid && approvedAt.String != "" {
		ts := parseTime(approvedAt.String)
		t.ApprovedAt = &ts
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

const taskCols = `id, title, description, project_id, status, approved, approved_by, approved_at, due_date, area_id, assigned_to, created_at, updated_at`

func (l *Local) getTaskRaw(id string) (json.RawMessage, error) {
	t, err := l.scanTask(l.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

func (l *Local) scanProject(row interface{ Scan(...any) error }) (model.Project, error) {
	var p model.Project
	var shared int
	var createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.AreaID, &shared, &createdAt, &updatedAt)
	if err != nil {
		return model.Project{}, err
	}
	p.IsShared = shared != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

const projectCols = `id, name, description, status, area_id, is_shared, created_at, updated_at`

func (l *Local) getProjectRaw(id string) (json.RawMessage, error) {
	p, err := l.scanProject(l.db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// --- contract: rows ---

func (l *Local) FetchRows(ctx context.Context, table string, filter Filter) ([]json.RawMessage, error) {
	where, args := buildWhere(filter)
	var out []json.RawMessage

	appendRow := func(v any, err error) error {
		if err != nil {
			return err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out = append(out, raw)
		return nil
	}

	var query string
	switch table {
	case TableTasks:
		query = `SELECT ` + taskCols + ` FROM tasks` + where + ` ORDER BY created_at DESC`
	case TableProjects:
		query = `SELECT ` + projectCols + ` FROM projects` + where + ` ORDER BY created_at DESC`
	case TableProfiles:
		query = `SELECT id, email, username, role, area_id FROM profiles` + where
	case TableAreas:
		query = `SELECT id, name, slug, created_at FROM areas` + where
	case TableProfileAreas:
		query = `SELECT profile_id, area_id FROM profile_areas` + where
	default:
		return nil, &Error{Op: "fetch", Table: table, Message: "unknown table"}
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &Error{Op: "fetch", Table: table, Message: err.Error()}
	}
	defer rows.Close()

	for rows.Next() {
		var err error
		switch table {
		case TableTasks:
			var t model.Task
			t, err = l.scanTask(rows)
			err = appendRow(t, err)
		case TableProjects:
			var p model.Project
			p, err = l.scanProject(rows)
			err = appendRow(p, err)
		case TableProfiles:
			var p model.Profile
			var areaID sql.NullString
			err = rows.Scan(&p.ID, &p.Email, &p.Username, &p.Role, &areaID)
			p.AreaID = scanNullStr(areaID)
			err = appendRow(p, err)
		case TableAreas:
			var a model.Area
			var createdAt string
			err = rows.Scan(&a.ID, &a.Name, &a.Slug, &createdAt)
			a.CreatedAt = parseTime(createdAt)
			err = appendRow(a, err)
		case TableProfileAreas:
			var pa model.ProfileArea
			err = rows.Scan(&pa.ProfileID, &pa.AreaID)
			err = appendRow(pa, err)
		}
		if err != nil {
			return nil, &Error{Op: "fetch", Table: table, Message: err.Error()}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "fetch", Table: table, Message: err.Error()}
	}
	return out, nil
}

func buildWhere(filter Filter) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	var conds []string
	var args []any
	for col, v := range filter {
		conds = append(conds, quoteCol(col)+" = ?")
		args = append(args, v)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func quoteCol(col string) string {
	// Filters come from our own callers, but keep the guard anyway.
	clean := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r == '_' {
			return r
		}
		return -1
	}, col)
	return clean
}

func fieldStr(fields map[string]any, key string) string {
	if v, ok := fields[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func fieldNullable(fields map[string]any, key string) any {
	v, ok := fields[key]
	if !ok || v == nil {
		return nil
	}
	return v
}

func (l *Local) InsertRow(ctx context.Context, table string, fields map[string]any) (json.RawMessage, error) {
	id := fieldStr(fields, "id")
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)

	var raw json.RawMessage
	var err error
	switch table {
	case TableTasks:
		_, err = l.db.ExecContext(ctx, `INSERT INTO tasks (id, title, description, project_id, status, approved, approved_by, approved_at, due_date, area_id, assigned_to, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, fieldStr(fields, "title"), fieldStr(fields, "description"),
			fieldNullable(fields, "project_id"), fieldStr(fields, "status"),
			approvedToCol(fieldNullable(fields, "approved")),
			fieldNullable(fields, "approved_by"), fieldNullable(fields, "approved_at"),
			fieldStr(fields, "due_date"), fieldStr(fields, "area_id"),
			fieldNullable(fields, "assigned_to"), now, now)
		if err == nil {
			raw, err = l.getTaskRaw(id)
		}
	case TableProjects:
		shared := 0
		if b, ok := fields["is_shared"].(bool); ok && b {
			shared = 1
		}
		_, err = l.db.ExecContext(ctx, `INSERT INTO projects (id, name, description, status, area_id, is_shared, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, fieldStr(fields, "name"), fieldStr(fields, "description"),
			fieldStr(fields, "status"), fieldStr(fields, "area_id"), shared, now, now)
		if err == nil {
			raw, err = l.getProjectRaw(id)
		}
	case TableProfiles:
		_, err = l.db.ExecContext(ctx, `INSERT INTO profiles (id, email, username, role, area_id) VALUES (?, ?, ?, ?, ?)`,
			id, fieldStr(fields, "email"), fieldStr(fields, "username"),
			fieldStr(fields, "role"), fieldNullable(fields, "area_id"))
		if err == nil {
			raw, _ = json.Marshal(map[string]any{"id": id, "email": fields["email"], "username": fields["username"], "role": fields["role"], "area_id": fields["area_id"]})
		}
	case TableAreas:
		_, err = l.db.ExecContext(ctx, `INSERT INTO areas (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
			id, fieldStr(fields, "name"), fieldStr(fields, "slug"), now)
		if err == nil {
			raw, _ = json.Marshal(map[string]any{"id": id, "name": fields["name"], "slug": fields["slug"], "created_at": now})
		}
	case TableProfileAreas:
		_, err = l.db.ExecContext(ctx, `INSERT INTO profile_areas (profile_id, area_id) VALUES (?, ?)`,
			fieldStr(fields, "profile_id"), fieldStr(fields, "area_id"))
		raw, _ = json.Marshal(fields)
	default:
		return nil, &Error{Op: "insert", Table: table, Message: "unknown table"}
	}
	if err != nil {
		return nil, &Error{Op: "insert", Table: table, Message: err.Error()}
	}

	l.notify(Change{Type: ChangeInsert, Table: table, New: raw})
	return raw, nil
}

func approvedToCol(v any) any {
	switch b := v.(type) {
	case nil:
		return nil
	case bool:
		if b {
			return 1
		}
		return 0
	default:
		return nil
	}
}

// taskUpdateCols and projectUpdateCols list the columns UpdateRow accepts;
// anything else in the fields map is dropped.
var taskUpdateCols = []string{"title", "description", "project_id", "status", "approved", "approved_by", "approved_at", "due_date", "assigned_to"}
var projectUpdateCols = []string{"name", "description", "status", "is_shared"}

func (l *Local) UpdateRow(ctx context.Context, table, id string, fields map[string]any) (json.RawMessage, error) {
	var cols []string
	switch table {
	case TableTasks:
		cols = taskUpdateCols
	case TableProjects:
		cols = projectUpdateCols
	default:
		return nil, &Error{Op: "update", Table: table, Message: "unknown table"}
	}

	var old json.RawMessage
	var err error
	if table == TableTasks {
		old, err = l.getTaskRaw(id)
	} else {
		old, err = l.getProjectRaw(id)
	}
	if err != nil {
		return nil, &Error{Op: "update", Table: table, Status: 404, Message: "row not found: " + id}
	}

	var sets []string
	var args []any
	for _, col := range cols {
		v, ok := fields[col]
		if !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		switch col {
		case "approved":
			args = append(args, approvedToCol(v))
		case "is_shared":
			if b, _ := v.(bool); b {
				args = append(args, 1)
			} else {
				args = append(args, 0)
			}
		default:
			args = append(args, v)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339), id)

	if _, err := l.db.ExecContext(ctx, `UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, &Error{Op: "update", Table: table, Message: err.Error()}
	}

	var raw json.RawMessage
	if table == TableTasks {
		raw, err = l.getTaskRaw(id)
	} else {
		raw, err = l.getProjectRaw(id)
	}
	if err != nil {
		return nil, &Error{Op: "update", Table: table, Message: err.Error()}
	}

	l.notify(Change{Type: ChangeUpdate, Table: table, Old: old, New: raw})
	return raw, nil
}

func (l *Local) DeleteRow(ctx context.Context, table, id string) error {
	switch table {
	case TableTasks, TableProjects, TableAreas, TableProfiles:
	default:
		return &Error{Op: "delete", Table: table, Message: "unknown table"}
	}

	var old json.RawMessage
	if table == TableTasks {
		old, _ = l.getTaskRaw(id)
	} else if table == TableProjects {
		old, _ = l.getProjectRaw(id)
	}

	// Collect the cascade before deleting so each task gets its own
	// delete notification, like the hosted feed emits.
	var cascaded []json.RawMessage
	if table == TableProjects {
		rows, err := l.FetchRows(ctx, TableTasks, Filter{"project_id": id})
		if err == nil {
			cascaded = rows
		}
	}

	if _, err := l.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return &Error{Op: "delete", Table: table, Message: err.Error()}
	}

	for _, t := range cascaded {
		l.notify(Change{Type: ChangeDelete, Table: TableTasks, Old: t})
	}
	if old == nil {
		old, _ = json.Marshal(map[string]string{"id": id})
	}
	l.notify(Change{Type: ChangeDelete, Table: table, Old: old})
	return nil
}

// --- contract: auth ---

func (l *Local) GetSession(ctx context.Context) (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session, nil
}

// RestoreSession installs a previously issued session, e.g. one cached on
// disk by the CLI between invocations.
func (l *Local) RestoreSession(s *Session) {
	l.mu.Lock()
	l.session = s
	l.mu.Unlock()
}

func (l *Local) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id string
	err := l.db.QueryRowContext(ctx, `SELECT id FROM profiles WHERE lower(email) = ?`, email).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, &Error{Op: "sign-in", Status: 400, Message: "no profile for " + email}
	}
	if err != nil {
		return nil, &Error{Op: "sign-in", Message: err.Error()}
	}
	s := &Session{AccessToken: uuid.NewString(), UserID: id, Email: email}
	l.mu.Lock()
	l.session = s
	l.mu.Unlock()
	return s, nil
}

func (l *Local) SignUp(ctx context.Context, email, password, username string) (*Session, error) {
	id := uuid.NewString()
	_, err := l.InsertRow(ctx, TableProfiles, map[string]any{
		"id": id, "email": strings.ToLower(strings.TrimSpace(email)),
		"username": username, "role": string(model.RoleUser),
	})
	if err != nil {
		return nil, err
	}
	return l.SignIn(ctx, email, password)
}

func (l *Local) SignOut(ctx context.Context) error {
	l.mu.Lock()
	l.session = nil
	l.mu.Unlock()
	return nil
}

func (l *Local) ResetPassword(ctx context.Context, email string) error {
	// Local mode has no passwords; nothing to reset.
	return nil
}

func (l *Local) UpdatePassword(ctx context.Context, newPassword string) error {
	return nil
}

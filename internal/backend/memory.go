package backend

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory Backend for tests. Rows are stored as raw JSON
// keyed by id, per table. FailNext makes the next write return a backend
// error, which is how the optimistic-revert paths get exercised.
type Memory struct {
	mu       sync.Mutex
	rows     map[string][]memRow
	subs     map[string][]func(Change)
	session  *Session
	failNext error
}

type memRow struct {
	id  string
	raw json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{
		rows: map[string][]memRow{},
		subs: map[string][]func(Change){},
	}
}

// FailNext arms a one-shot error for the next write operation.
func (m *Memory) FailNext(err error) {
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

func (m *Memory) takeFailure() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.failNext
	m.failNext = nil
	return err
}

// Seed loads a row without emitting a change, for test setup.
func (m *Memory) Seed(table string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[table] = append(m.rows[table], memRow{id: rowID(raw), raw: raw})
}

func rowID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	json.Unmarshal(raw, &probe)
	return probe.ID
}

// Emit injects a change into the feed, standing in for a remote writer.
func (m *Memory) Emit(ch Change) {
	m.notify(ch)
}

func (m *Memory) notify(ch Change) {
	m.mu.Lock()
	cbs := append([]func(Change){}, m.subs[ch.Table]...)
	m.mu.Unlock()
	for _, fn := range cbs {
		if fn != nil {
			fn(ch)
		}
	}
}

func (m *Memory) Subscribe(ctx context.Context, table string, onChange func(Change)) (func(), error) {
	m.mu.Lock()
	m.subs[table] = append(m.subs[table], onChange)
	idx := len(m.subs[table]) - 1
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if cbs := m.subs[table]; idx < len(cbs) {
				cbs[idx] = nil
			}
		})
	}, nil
}

func (m *Memory) FetchRows(ctx context.Context, table string, filter Filter) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []json.RawMessage
	for _, r := range m.rows[table] {
		if matchFilter(r.raw, filter) {
			out = append(out, r.raw)
		}
	}
	return out, nil
}

func matchFilter(raw json.RawMessage, filter Filter) bool {
	if len(filter) == 0 {
		return true
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	for col, want := range filter {
		got, ok := m[col].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func (m *Memory) InsertRow(ctx context.Context, table string, fields map[string]any) (json.RawMessage, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if _, ok := fields["id"]; !ok {
		copied := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			copied[k] = v
		}
		copied["id"] = uuid.NewString()
		fields = copied
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, &Error{Op: "insert", Table: table, Message: err.Error()}
	}
	m.mu.Lock()
	m.rows[table] = append(m.rows[table], memRow{id: rowID(raw), raw: raw})
	m.mu.Unlock()
	m.notify(Change{Type: ChangeInsert, Table: table, New: raw})
	return raw, nil
}

func (m *Memory) UpdateRow(ctx context.Context, table, id string, fields map[string]any) (json.RawMessage, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	var idx = -1
	for i, r := range m.rows[table] {
		if r.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return nil, &Error{Op: "update", Table: table, Status: 404, Message: "row not found: " + id}
	}
	old := m.rows[table][idx].raw

	var merged map[string]any
	if err := json.Unmarshal(old, &merged); err != nil {
		m.mu.Unlock()
		return nil, &Error{Op: "update", Table: table, Message: err.Error()}
	}
	for k, v := range fields {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		m.mu.Unlock()
		return nil, &Error{Op: "update", Table: table, Message: err.Error()}
	}
	m.rows[table][idx].raw = raw
	m.mu.Unlock()

	m.notify(Change{Type: ChangeUpdate, Table: table, Old: old, New: raw})
	return raw, nil
}

func (m *Memory) DeleteRow(ctx context.Context, table, id string) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	var old json.RawMessage
	rows := m.rows[table]
	for i, r := range rows {
		if r.id == id {
			old = r.raw
			m.rows[table] = append(rows[:i], rows[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	if old == nil {
		old, _ = json.Marshal(map[string]string{"id": id})
	}
	m.notify(Change{Type: ChangeDelete, Table: table, Old: old})
	return nil
}

func (m *Memory) GetSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *Memory) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	rows, _ := m.FetchRows(ctx, TableProfiles, Filter{"email": email})
	if len(rows) == 0 {
		return nil, &Error{Op: "sign-in", Status: 400, Message: "invalid credentials"}
	}
	s := &Session{AccessToken: uuid.NewString(), UserID: rowID(rows[0]), Email: email}
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
	return s, nil
}

func (m *Memory) SignUp(ctx context.Context, email, password, username string) (*Session, error) {
	if _, err := m.InsertRow(ctx, TableProfiles, map[string]any{
		"email": strings.ToLower(strings.TrimSpace(email)), "username": username, "role": "user",
	}); err != nil {
		return nil, err
	}
	return m.SignIn(ctx, email, password)
}

func (m *Memory) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) ResetPassword(ctx context.Context, email string) error  { return nil }
func (m *Memory) UpdatePassword(ctx context.Context, newPass string) error { return nil }

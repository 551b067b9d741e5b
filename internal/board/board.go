// Package board ties the local store, the permission/lifecycle rules and a
// backend together into the controller every frontend (web, tui, cli) talks
// to. Writes are optimistic: the store is mutated first, the backend write
// follows, and a failed write restores the pre-mutation snapshot. Remote
// changes from the backend feed funnel through the same store so last writer
// wins regardless of origin.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"promanager/internal/backend"
	"promanager/internal/model"
	"promanager/internal/store"
)

type Board struct {
	backend backend.Backend

	mu    sync.Mutex
	db    *store.DB
	actor *model.Profile

	watchers []chan struct{}
	cancels  []func()
}

func New(b backend.Backend) *Board {
	return &Board{backend: b, db: store.New()}
}

func (b *Board) now() time.Time { return time.Now() }

// Actor returns the signed-in profile, nil before sign-in.
func (b *Board) Actor() *model.Profile {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.actor == nil {
		return nil
	}
	a := *b.actor
	return &a
}

// SignIn authenticates against the backend and resolves the session user's
// profile, including the multi-area allowlist for data leads.
func (b *Board) SignIn(ctx context.Context, email, password string) error {
	s, err := b.backend.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return b.resolveActor(ctx, s)
}

// Resume picks up an existing backend session, if any. Returns false when
// there is no session to resume.
func (b *Board) Resume(ctx context.Context) (bool, error) {
	s, err := b.backend.GetSession(ctx)
	if err != nil {
		return false, err
	}
	if !s.Valid() {
		return false, nil
	}
	if err := b.resolveActor(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Board) resolveActor(ctx context.Context, s *backend.Session) error {
	rows, err := b.backend.FetchRows(ctx, backend.TableProfiles, backend.Filter{"id": s.UserID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no profile for user %s", s.UserID)
	}
	var p model.Profile
	if err := json.Unmarshal(rows[0], &p); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	if p.Role == model.RoleDataLead {
		paRows, err := b.backend.FetchRows(ctx, backend.TableProfileAreas, backend.Filter{"profile_id": p.ID})
		if err != nil {
			return err
		}
		for _, raw := range paRows {
			var pa model.ProfileArea
			if err := json.Unmarshal(raw, &pa); err == nil && pa.AreaID != "" {
				p.AreaIDs = append(p.AreaIDs, pa.AreaID)
			}
		}
	}
	b.mu.Lock()
	b.actor = &p
	b.mu.Unlock()
	return nil
}

// SignOut drops the session and the actor. The store keeps its rows; the
// caller decides whether to tear the board down.
func (b *Board) SignOut(ctx context.Context) error {
	err := b.backend.SignOut(ctx)
	b.mu.Lock()
	b.actor = nil
	b.mu.Unlock()
	return err
}

// Load fetches every table into the store. Call after sign-in and before
// Start.
func (b *Board) Load(ctx context.Context) error {
	db := store.New()
	for _, step := range []struct {
		table string
		apply func(json.RawMessage) error
	}{
		{backend.TableAreas, func(raw json.RawMessage) error {
			var a model.Area
			if err := json.Unmarshal(raw, &a); err != nil {
				return err
			}
			db.ApplyAreaUpsert(a)
			return nil
		}},
		{backend.TableProfiles, func(raw json.RawMessage) error {
			var p model.Profile
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			db.ApplyProfileUpsert(p)
			return nil
		}},
		{backend.TableProjects, func(raw json.RawMessage) error {
			var p model.Project
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			db.ApplyProjectInsert(p)
			return nil
		}},
		{backend.TableTasks, func(raw json.RawMessage) error {
			var t model.Task
			if err := json.Unmarshal(raw, &t); err != nil {
				return err
			}
			db.ApplyTaskInsert(t)
			return nil
		}},
	} {
		rows, err := b.backend.FetchRows(ctx, step.table, nil)
		if err != nil {
			return fmt.Errorf("load %s: %w", step.table, err)
		}
		for _, raw := range rows {
			if err := step.apply(raw); err != nil {
				return fmt.Errorf("decode %s row: %w", step.table, err)
			}
		}
	}
	b.mu.Lock()
	b.db = db
	b.mu.Unlock()
	b.notify()
	return nil
}

// Start subscribes to the backend change feed for tasks and projects.
func (b *Board) Start(ctx context.Context) error {
	cancelTasks, err := b.backend.Subscribe(ctx, backend.TableTasks, b.onTaskChange)
	if err != nil {
		return fmt.Errorf("subscribe tasks: %w", err)
	}
	cancelProjects, err := b.backend.Subscribe(ctx, backend.TableProjects, b.onProjectChange)
	if err != nil {
		cancelTasks()
		return fmt.Errorf("subscribe projects: %w", err)
	}
	b.mu.Lock()
	b.cancels = append(b.cancels, cancelTasks, cancelProjects)
	b.mu.Unlock()
	return nil
}

// Close cancels the change-feed subscriptions.
func (b *Board) Close() {
	b.mu.Lock()
	cancels := b.cancels
	b.cancels = nil
	b.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

func (b *Board) onTaskChange(ch backend.Change) {
	b.mu.Lock()
	switch ch.Type {
	case backend.ChangeInsert:
		var t model.Task
		if err := json.Unmarshal(ch.New, &t); err != nil {
			log.Printf("board: bad task insert payload: %v", err)
			break
		}
		b.db.ApplyTaskInsert(t)
	case backend.ChangeUpdate:
		var t model.Task
		if err := json.Unmarshal(ch.New, &t); err != nil {
			log.Printf("board: bad task update payload: %v", err)
			break
		}
		b.db.ApplyTaskUpdate(t)
	case backend.ChangeDelete:
		if id := changeRowID(ch.Old); id != "" {
			b.db.ApplyTaskDelete(id)
		}
	}
	b.mu.Unlock()
	b.notify()
}

func (b *Board) onProjectChange(ch backend.Change) {
	b.mu.Lock()
	switch ch.Type {
	case backend.ChangeInsert:
		var p model.Project
		if err := json.Unmarshal(ch.New, &p); err != nil {
			log.Printf("board: bad project insert payload: %v", err)
			break
		}
		b.db.ApplyProjectInsert(p)
	case backend.ChangeUpdate:
		var p model.Project
		if err := json.Unmarshal(ch.New, &p); err != nil {
			log.Printf("board: bad project update payload: %v", err)
			break
		}
		b.db.ApplyProjectUpdate(p)
	case backend.ChangeDelete:
		if id := changeRowID(ch.Old); id != "" {
			b.db.ApplyProjectDelete(id)
		}
	}
	b.mu.Unlock()
	b.notify()
}

func changeRowID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	json.Unmarshal(raw, &probe)
	return probe.ID
}

// Watch returns a channel that receives a signal whenever the store changes,
// local or remote. Signals coalesce; receivers re-read the board state.
func (b *Board) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.watchers = append(b.watchers, ch)
	idx := len(b.watchers) - 1
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if idx < len(b.watchers) {
				b.watchers[idx] = nil
			}
		})
	}
}

func (b *Board) notify() {
	b.mu.Lock()
	watchers := append([]chan struct{}{}, b.watchers...)
	b.mu.Unlock()
	for _, ch := range watchers {
		if ch == nil {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

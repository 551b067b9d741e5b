// Package backend abstracts the hosted database service the dashboard is
// glued onto: row storage with filtered fetches, auth/session management,
// and a realtime change feed per table. The core never depends on a specific
// product: anything satisfying Backend will do, including the in-process
// sqlite backend used by --local mode and the memory fake used in tests.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Table names of the remote schema.
const (
	TableTasks        = "tasks"
	TableProjects     = "projects"
	TableProfiles     = "profiles"
	TableAreas        = "areas"
	TableProfileAreas = "profile_areas"
)

// Filter is a column→value equality filter for FetchRows. An empty filter
// fetches the whole table (row-level security on the hosted side still
// applies).
type Filter map[string]string

// ChangeType tags a realtime change notification.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Change is one push notification from the change feed. Old carries the
// previous row for updates/deletes when the feed provides it (deletes may
// carry only the id), New the current row for inserts/updates.
type Change struct {
	Type  ChangeType
	Table string
	Old   json.RawMessage
	New   json.RawMessage
}

// Row returns the payload that identifies the changed entity: New when
// present, otherwise Old.
func (c Change) Row() json.RawMessage {
	if len(c.New) > 0 {
		return c.New
	}
	return c.Old
}

// Session is an authenticated backend session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && (s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt))
}

// Error is a backend (network/service) failure. Optimistic local state must
// be reverted before one of these is surfaced to the user.
type Error struct {
	Op      string
	Table   string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("backend: %s %s: %s", e.Op, e.Table, e.Message)
	}
	return fmt.Sprintf("backend: %s: %s", e.Op, e.Message)
}

// Backend is the full collaborator contract.
type Backend interface {
	FetchRows(ctx context.Context, table string, filter Filter) ([]json.RawMessage, error)
	InsertRow(ctx context.Context, table string, fields map[string]any) (json.RawMessage, error)
	UpdateRow(ctx context.Context, table, id string, fields map[string]any) (json.RawMessage, error)
	DeleteRow(ctx context.Context, table, id string) error

	// Subscribe registers onChange for the table's change feed and returns
	// a cancel function. Callbacks may fire from a different goroutine than
	// the caller's; consumers serialize through their own reconciler.
	Subscribe(ctx context.Context, table string, onChange func(Change)) (cancel func(), err error)

	GetSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, username string) (*Session, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error
}

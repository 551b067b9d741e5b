package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is a task's (or project's) kanban column.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProgress  Status = "progress"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus normalizes a user-supplied status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status: %q (expected pending|progress|completed)", s)
	}
	return st, nil
}

// Role is the closed set of actor roles. Every role×action decision lives in
// the perm package; nothing else should branch on role strings.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleSuperManager Role = "super_manager"
	// RoleAdmin is global read-only: sees every tenant, mutates nothing,
	// but sits on the approval tier.
	RoleAdmin      Role = "admin"
	RoleAreaLeader Role = "area_leader"
	// RoleDataLead holds a multi-area read grant (profile_areas rows).
	RoleDataLead Role = "lider_data"
	RoleUser     Role = "user"
	RoleViewer   Role = "viewer"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleSuperAdmin, RoleSuperManager, RoleAdmin, RoleAreaLeader, RoleDataLead, RoleUser, RoleViewer:
		return r, nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// Task is the canonical task row. JSON tags match the remote row schema.
//
// Approved is tri-state: nil while a completion awaits review, true once a
// leader approved it, false when the last verdict was a rejection. A
// rejection demotes the task back to progress but keeps the verdict fields
// until the next completion cycle resets them to nil.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ProjectID   *string    `json:"project_id"`
	Status      Status     `json:"status"`
	Approved    *bool      `json:"approved"`
	ApprovedBy  *string    `json:"approved_by"`
	ApprovedAt  *time.Time `json:"approved_at"`
	DueDate     string     `json:"due_date,omitempty"` // YYYY-MM-DD
	AreaID      string     `json:"area_id"`
	AssignedTo  *string    `json:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PendingReview reports whether the task is completed and waiting for a
// leader's verdict. Such a task is frozen on the board: the only exits are
// approve and reject.
func (t Task) PendingReview() bool {
	return t.Status == StatusCompleted && t.Approved == nil
}

// Rejected reports whether the last recorded verdict was a rejection.
func (t Task) Rejected() bool {
	return t.Approved != nil && !*t.Approved
}

func (t Task) AssignedToID() string {
	if t.AssignedTo == nil {
		return ""
	}
	return strings.TrimSpace(*t.AssignedTo)
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	AreaID      string    `json:"area_id"`
	IsShared    bool      `json:"is_shared"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Profile is the authenticated actor. AreaIDs is the lider_data multi-area
// allowlist, joined from profile_areas.
type Profile struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username,omitempty"`
	Role     Role     `json:"role"`
	AreaID   *string  `json:"area_id"`
	AreaIDs  []string `json:"area_ids,omitempty"`
}

func (p Profile) HomeAreaID() string {
	if p.AreaID == nil {
		return ""
	}
	return strings.TrimSpace(*p.AreaID)
}

type Area struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileArea is a multi-area grant row for lider_data profiles.
type ProfileArea struct {
	ProfileID string `json:"profile_id"`
	AreaID    string `json:"area_id"`
}

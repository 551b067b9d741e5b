package store

import (
	"strings"

	"promanager/internal/model"
)

// DB is the canonical in-memory copy of the dashboard's state. It is owned
// exclusively by the reconciler entry points in reconcile.go: every write
// (optimistic local mutation, confirmed backend response, realtime push)
// funnels through ApplyInsert/ApplyUpdate/ApplyDelete so there is at most
// one representation per id at any time. Other components read it but never
// splice the slices directly.
//
// Collections are ordered newest-first: inserts prepend.
type DB struct {
	Tasks    []model.Task
	Projects []model.Project
	Profiles []model.Profile
	Areas    []model.Area
}

func New() *DB {
	return &DB{}
}

func (db *DB) FindTask(id string) (*model.Task, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Tasks {
		if db.Tasks[i].ID == id {
			return &db.Tasks[i], true
		}
	}
	return nil, false
}

func (db *DB) FindProject(id string) (*model.Project, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Projects {
		if db.Projects[i].ID == id {
			return &db.Projects[i], true
		}
	}
	return nil, false
}

func (db *DB) FindProfile(id string) (*model.Profile, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Profiles {
		if db.Profiles[i].ID == id {
			return &db.Profiles[i], true
		}
	}
	return nil, false
}

func (db *DB) FindArea(id string) (*model.Area, bool) {
	id = strings.TrimSpace(id)
	for i := range db.Areas {
		if db.Areas[i].ID == id {
			return &db.Areas[i], true
		}
	}
	return nil, false
}

// ProjectShared reports the is_shared flag of a task's project; false when
// the task has no project or the project is not loaded.
func (db *DB) ProjectShared(t *model.Task) bool {
	if t == nil || t.ProjectID == nil {
		return false
	}
	p, ok := db.FindProject(*t.ProjectID)
	return ok && p.IsShared
}

// Snapshot is a deep copy of the collections, taken before an optimistic
// mutation so a failed backend write can restore the prior state.
type Snapshot struct {
	tasks    []model.Task
	projects []model.Project
}

func (db *DB) Snapshot() Snapshot {
	s := Snapshot{
		tasks:    make([]model.Task, len(db.Tasks)),
		projects: make([]model.Project, len(db.Projects)),
	}
	copy(s.tasks, db.Tasks)
	copy(s.projects, db.Projects)
	return s
}

func (db *DB) Restore(s Snapshot) {
	db.Tasks = make([]model.Task, len(s.tasks))
	db.Projects = make([]model.Project, len(s.projects))
	copy(db.Tasks, s.tasks)
	copy(db.Projects, s.projects)
}

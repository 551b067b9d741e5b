package store

import (
	"log"
	"strings"

	"promanager/internal/model"
)

// Reconciler entry points. Inserts are idempotent against duplicate
// notifications, updates for unknown ids are soft (logged and dropped;
// the update may have raced an as-yet-unapplied insert), deletes are
// idempotent. Last applied write wins per id; there is deliberately no
// field-level merging, matching the backend's own last-writer-wins
// semantics.

// ApplyTaskInsert prepends the task unless a row with its id already
// exists. Reports whether the collection changed.
func (db *DB) ApplyTaskInsert(t model.Task) bool {
	if strings.TrimSpace(t.ID) == "" {
		return false
	}
	if _, ok := db.FindTask(t.ID); ok {
		return false
	}
	db.Tasks = append([]model.Task{t}, db.Tasks...)
	return true
}

// ApplyTaskUpdate replaces the task at the matching id in place.
func (db *DB) ApplyTaskUpdate(t model.Task) bool {
	for i := range db.Tasks {
		if db.Tasks[i].ID == t.ID {
			db.Tasks[i] = t
			return true
		}
	}
	log.Printf("store: dropping update for unknown task %s", t.ID)
	return false
}

// ApplyTaskDelete removes the task by id; a no-op when absent.
func (db *DB) ApplyTaskDelete(id string) bool {
	id = strings.TrimSpace(id)
	for i := range db.Tasks {
		if db.Tasks[i].ID == id {
			db.Tasks = append(db.Tasks[:i], db.Tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (db *DB) ApplyProjectInsert(p model.Project) bool {
	if strings.TrimSpace(p.ID) == "" {
		return false
	}
	if _, ok := db.FindProject(p.ID); ok {
		return false
	}
	db.Projects = append([]model.Project{p}, db.Projects...)
	return true
}

func (db *DB) ApplyProjectUpdate(p model.Project) bool {
	for i := range db.Projects {
		if db.Projects[i].ID == p.ID {
			db.Projects[i] = p
			return true
		}
	}
	log.Printf("store: dropping update for unknown project %s", p.ID)
	return false
}

// ApplyProjectDelete removes the project and cascades to its tasks,
// mirroring the backend's cascade so a single delete notification cannot
// leave orphans behind.
func (db *DB) ApplyProjectDelete(id string) bool {
	id = strings.TrimSpace(id)
	removed := false
	for i := range db.Projects {
		if db.Projects[i].ID == id {
			db.Projects = append(db.Projects[:i], db.Projects[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		kept := db.Tasks[:0]
		for _, t := range db.Tasks {
			if t.ProjectID == nil || *t.ProjectID != id {
				kept = append(kept, t)
			}
		}
		db.Tasks = kept
	}
	return removed
}

func (db *DB) ApplyProfileUpsert(p model.Profile) {
	for i := range db.Profiles {
		if db.Profiles[i].ID == p.ID {
			db.Profiles[i] = p
			return
		}
	}
	db.Profiles = append([]model.Profile{p}, db.Profiles...)
}

func (db *DB) ApplyAreaUpsert(a model.Area) {
	for i := range db.Areas {
		if db.Areas[i].ID == a.ID {
			db.Areas[i] = a
			return
		}
	}
	db.Areas = append([]model.Area{a}, db.Areas...)
}

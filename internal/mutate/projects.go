package mutate

import (
	"strings"
	"time"

	"promanager/internal/lifecycle"
	"promanager/internal/model"
	"promanager/internal/perm"
	"promanager/internal/store"
)

type ProjectDraft struct {
	Name        string
	Description string
	Status      model.Status
	IsShared    bool
}

// NewProject validates a draft and shapes the row for the backend. Like
// tasks, project ids are backend-assigned; the area comes from the creator.
func NewProject(actor *model.Profile, draft ProjectDraft, now time.Time) (model.Project, error) {
	if !perm.CanEditProjects(actor) {
		return model.Project{}, PermissionDeniedError{ActorID: actorID(actor), Action: "create project"}
	}
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return model.Project{}, lifecycle.InvalidTransitionError{Reason: "project name required"}
	}
	status := draft.Status
	if status == "" {
		status = model.StatusPending
	}
	if !status.Valid() {
		return model.Project{}, lifecycle.InvalidTransitionError{To: status, Reason: "unknown status"}
	}
	return model.Project{
		Name:        name,
		Description: strings.TrimSpace(draft.Description),
		Status:      status,
		AreaID:      actor.HomeAreaID(),
		IsShared:    draft.IsShared,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

func UpdateProject(db *store.DB, actor *model.Profile, projectID string, draft ProjectDraft, now time.Time) (model.Project, error) {
	p, ok := db.FindProject(projectID)
	if !ok {
		return model.Project{}, NotFoundError{Kind: "project", ID: projectID}
	}
	if !perm.CanEditProjects(actor) {
		return model.Project{}, PermissionDeniedError{ActorID: actorID(actor), Action: "edit project"}
	}

	updated := *p
	if name := strings.TrimSpace(draft.Name); name != "" {
		updated.Name = name
	}
	updated.Description = strings.TrimSpace(draft.Description)
	updated.IsShared = draft.IsShared
	if draft.Status != "" {
		if !draft.Status.Valid() {
			return model.Project{}, lifecycle.InvalidTransitionError{To: draft.Status, Reason: "unknown status"}
		}
		updated.Status = draft.Status
	}
	updated.UpdatedAt = now.UTC()
	db.ApplyProjectUpdate(updated)
	return updated, nil
}

// DeleteProject removes the project and, via the store cascade, its tasks.
func DeleteProject(db *store.DB, actor *model.Profile, projectID string) error {
	if _, ok := db.FindProject(projectID); !ok {
		return NotFoundError{Kind: "project", ID: projectID}
	}
	if !perm.CanEditProjects(actor) {
		return PermissionDeniedError{ActorID: actorID(actor), Action: "delete project"}
	}
	db.ApplyProjectDelete(projectID)
	return nil
}

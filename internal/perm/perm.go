package perm

import (
	"promanager/internal/model"
)

// Pure role×action policy. Actors are passed as *model.Profile; nil means
// unauthenticated. Callers that get a false back surface it as a
// PermissionDenied outcome (re-auth prompt), never a silent drop.

// CanEditTasks reports whether the actor may create or edit tasks at all.
// Viewers and the global read-only admin are excluded.
func CanEditTasks(actor *model.Profile) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case model.RoleViewer, model.RoleAdmin, "":
		return false
	}
	return true
}

// CanEditProjects reports whether the actor holds project-level (leader-tier)
// edit rights. This is also the privilege that lets an actor mutate tasks
// assigned to someone else.
func CanEditProjects(actor *model.Profile) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case model.RoleSuperAdmin, model.RoleSuperManager, model.RoleAreaLeader, model.RoleDataLead:
		return true
	}
	return false
}

// CanMutateTask enforces the assignment lock: a task assigned to a different
// user is immutable to a non-privileged actor even if they can edit tasks in
// general.
func CanMutateTask(actor *model.Profile, t *model.Task) bool {
	if t == nil || !CanEditTasks(actor) {
		return false
	}
	assigned := t.AssignedToID()
	if assigned == "" || assigned == actor.ID {
		return true
	}
	return CanEditProjects(actor)
}

// CanApprove reports whether the actor sits on the approval tier for
// completed tasks. The assignee alone never qualifies.
func CanApprove(actor *model.Profile) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case model.RoleAreaLeader, model.RoleSuperManager, model.RoleSuperAdmin, model.RoleAdmin:
		return true
	}
	return false
}

// SeesAllAreas reports whether the actor's visibility is unscoped.
func SeesAllAreas(actor *model.Profile) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case model.RoleSuperAdmin, model.RoleSuperManager, model.RoleAdmin:
		return true
	}
	return false
}

// VisibleArea reports whether the actor may see rows partitioned to areaID.
func VisibleArea(actor *model.Profile, areaID string) bool {
	if actor == nil {
		return false
	}
	if SeesAllAreas(actor) {
		return true
	}
	if areaID == "" {
		return true
	}
	if actor.HomeAreaID() == areaID {
		return true
	}
	if actor.Role == model.RoleDataLead {
		for _, id := range actor.AreaIDs {
			if id == areaID {
				return true
			}
		}
	}
	return false
}

// VisibleProject applies area scoping plus the shared-project extension:
// leader tiers also see projects flagged shared outside their own areas.
func VisibleProject(actor *model.Profile, p *model.Project) bool {
	if actor == nil || p == nil {
		return false
	}
	if VisibleArea(actor, p.AreaID) {
		return true
	}
	if !p.IsShared {
		return false
	}
	switch actor.Role {
	case model.RoleAreaLeader, model.RoleDataLead:
		return true
	}
	return false
}

// VisibleTask applies area scoping to a task. sharedProject is the is_shared
// flag of the task's project (false when the task has no project).
func VisibleTask(actor *model.Profile, t *model.Task, sharedProject bool) bool {
	if actor == nil || t == nil {
		return false
	}
	if VisibleArea(actor, t.AreaID) {
		return true
	}
	if !sharedProject {
		return false
	}
	switch actor.Role {
	case model.RoleAreaLeader, model.RoleDataLead:
		return true
	}
	return false
}

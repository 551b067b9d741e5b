package perm

import (
	"testing"

	"promanager/internal/model"
)

func strPtr(s string) *string { return &s }

func profile(id string, role model.Role, areaID string) *model.Profile {
	p := &model.Profile{ID: id, Role: role}
	if areaID != "" {
		p.AreaID = &areaID
	}
	return p
}

func TestCanEditTasks_RoleMatrix(t *testing.T) {
	cases := []struct {
		role model.Role
		want bool
	}{
		{model.RoleSuperAdmin, true},
		{model.RoleSuperManager, true},
		{model.RoleAdmin, false}, // global read-only
		{model.RoleAreaLeader, true},
		{model.RoleDataLead, true},
		{model.RoleUser, true},
		{model.RoleViewer, false},
	}
	for _, tc := range cases {
		if got := CanEditTasks(profile("p1", tc.role, "")); got != tc.want {
			t.Fatalf("CanEditTasks(%s) = %v, want %v", tc.role, got, tc.want)
		}
	}
	if CanEditTasks(nil) {
		t.Fatalf("expected unauthenticated actor to be denied")
	}
}

func TestCanMutateTask_AssignmentLock(t *testing.T) {
	task := &model.Task{ID: "t1", Status: model.StatusPending, AssignedTo: strPtr("other")}

	// A plain user cannot touch a task assigned to someone else.
	if CanMutateTask(profile("me", model.RoleUser, "a1"), task) {
		t.Fatalf("expected user to be locked out of task assigned to another user")
	}

	// The assignee can.
	if !CanMutateTask(profile("other", model.RoleUser, "a1"), task) {
		t.Fatalf("expected assignee to be able to mutate their task")
	}

	// Unassigned tasks are open to any task editor.
	open := &model.Task{ID: "t2", Status: model.StatusPending}
	if !CanMutateTask(profile("me", model.RoleUser, "a1"), open) {
		t.Fatalf("expected user to be able to mutate an unassigned task")
	}

	// Leader tiers override the assignment lock.
	if !CanMutateTask(profile("lead", model.RoleAreaLeader, "a1"), task) {
		t.Fatalf("expected area leader to override assignment lock")
	}
	if !CanMutateTask(profile("sm", model.RoleSuperManager, ""), task) {
		t.Fatalf("expected super manager to override assignment lock")
	}

	// Viewer is locked out regardless of assignment.
	if CanMutateTask(profile("other", model.RoleViewer, "a1"), open) {
		t.Fatalf("expected viewer to be denied")
	}
}

func TestCanApprove_Tiers(t *testing.T) {
	approvers := []model.Role{model.RoleAreaLeader, model.RoleSuperManager, model.RoleSuperAdmin, model.RoleAdmin}
	for _, r := range approvers {
		if !CanApprove(profile("p", r, "")) {
			t.Fatalf("expected %s to be able to approve", r)
		}
	}
	for _, r := range []model.Role{model.RoleUser, model.RoleDataLead, model.RoleViewer} {
		if CanApprove(profile("p", r, "")) {
			t.Fatalf("expected %s to be unable to approve", r)
		}
	}
}

func TestVisibility_AreaScoping(t *testing.T) {
	own := &model.Project{ID: "pr1", AreaID: "a1"}
	foreign := &model.Project{ID: "pr2", AreaID: "a2"}
	shared := &model.Project{ID: "pr3", AreaID: "a2", IsShared: true}

	admin := profile("p", model.RoleAdmin, "")
	if !VisibleProject(admin, own) || !VisibleProject(admin, foreign) {
		t.Fatalf("expected admin tier to see all tenants")
	}

	leader := profile("p", model.RoleAreaLeader, "a1")
	if !VisibleProject(leader, own) {
		t.Fatalf("expected leader to see own area")
	}
	if VisibleProject(leader, foreign) {
		t.Fatalf("expected leader not to see foreign unshared project")
	}
	if !VisibleProject(leader, shared) {
		t.Fatalf("expected leader to see shared project outside own area")
	}

	dataLead := profile("p", model.RoleDataLead, "a3")
	dataLead.AreaIDs = []string{"a1", "a2"}
	if !VisibleProject(dataLead, own) || !VisibleProject(dataLead, foreign) {
		t.Fatalf("expected lider_data to see allowlisted areas")
	}

	user := profile("p", model.RoleUser, "a1")
	if !VisibleTask(user, &model.Task{ID: "t", AreaID: "a1"}, false) {
		t.Fatalf("expected user to see own-area task")
	}
	if VisibleTask(user, &model.Task{ID: "t", AreaID: "a2"}, false) {
		t.Fatalf("expected user not to see foreign-area task")
	}
	if VisibleTask(user, &model.Task{ID: "t", AreaID: "a2"}, true) {
		t.Fatalf("shared-project extension applies to leader tiers only")
	}
}

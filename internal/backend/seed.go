package backend

import (
	"context"
	"fmt"
	"time"

	"promanager/internal/model"
)

// SeedDemo loads a small demo dataset into b: one area, a leader and a
// member profile, two projects and a handful of tasks spread across the
// three board columns. Used by `promanager serve --demo` and the docs.
func SeedDemo(ctx context.Context, b Backend) error {
	areaRaw, err := b.InsertRow(ctx, TableAreas, map[string]any{
		"name": "Operations", "slug": "operations",
	})
	if err != nil {
		return fmt.Errorf("seed area: %w", err)
	}
	areaID := mustID(areaRaw)

	leaderRaw, err := b.InsertRow(ctx, TableProfiles, map[string]any{
		"email": "leader@demo.local", "username": "Demo Leader",
		"role": string(model.RoleAreaLeader), "area_id": areaID,
	})
	if err != nil {
		return fmt.Errorf("seed leader: %w", err)
	}
	leaderID := mustID(leaderRaw)

	memberRaw, err := b.InsertRow(ctx, TableProfiles, map[string]any{
		"email": "member@demo.local", "username": "Demo Member",
		"role": string(model.RoleUser), "area_id": areaID,
	})
	if err != nil {
		return fmt.Errorf("seed member: %w", err)
	}
	memberID := mustID(memberRaw)

	projects := []map[string]any{
		{"name": "Website Relaunch", "description": "New marketing site and docs portal", "status": "active", "area_id": areaID},
		{"name": "Q3 Reporting", "description": "Quarterly metrics rollout", "status": "active", "area_id": areaID, "is_shared": true},
	}
	var projectIDs []string
	for _, p := range projects {
		raw, err := b.InsertRow(ctx, TableProjects, p)
		if err != nil {
			return fmt.Errorf("seed project %q: %w", p["name"], err)
		}
		projectIDs = append(projectIDs, mustID(raw))
	}

	due := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	tasks := []map[string]any{
		{"title": "Draft landing page copy", "status": string(model.StatusPending), "project_id": projectIDs[0], "assigned_to": memberID, "due_date": due},
		{"title": "Set up staging environment", "status": string(model.StatusProgress), "project_id": projectIDs[0], "assigned_to": memberID, "due_date": due},
		{"title": "Migrate DNS records", "status": string(model.StatusPending), "project_id": projectIDs[0], "due_date": due},
		{"title": "Collect July numbers", "status": string(model.StatusCompleted), "approved": true, "approved_by": leaderID, "approved_at": time.Now().UTC().Format(time.RFC3339), "project_id": projectIDs[1], "assigned_to": memberID},
		{"title": "Review chart templates", "status": string(model.StatusCompleted), "project_id": projectIDs[1], "assigned_to": memberID},
	}
	for _, t := range tasks {
		t["area_id"] = areaID
		t["description"] = ""
		if _, ok := t["due_date"]; !ok {
			t["due_date"] = ""
		}
		if _, err := b.InsertRow(ctx, TableTasks, t); err != nil {
			return fmt.Errorf("seed task %q: %w", t["title"], err)
		}
	}
	return nil
}

func mustID(raw []byte) string {
	return rowID(raw)
}

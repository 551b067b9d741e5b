package cli

import (
	"strconv"
	"strings"

	"promanager/internal/board"
	"promanager/internal/format"
	"promanager/internal/model"
	"promanager/internal/mutate"
	"promanager/internal/store"

	"github.com/spf13/cobra"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsAddCmd(app))
	cmd.AddCommand(newProjectsRmCmd(app))
	return cmd
}

func projectTable(b *board.Board, projects []model.Project) format.Table {
	tbl := format.Table{Headers: []string{"ID", "NAME", "STATUS", "PROGRESS", "SHARED"}}
	for _, p := range projects {
		shared := ""
		if p.IsShared {
			shared = "yes"
		}
		tbl.Rows = append(tbl.Rows, []string{
			p.ID, p.Name, string(p.Status), strconv.Itoa(b.Progress(p.ID)) + "%", shared,
		})
	}
	return tbl
}

func newProjectsListCmd(app *App) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible projects with progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			b, err := openBoard(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if err := requireActor(b); err != nil {
				return writeErr(cmd, err)
			}

			projects := store.FilterProjects(b.Projects(), "", query)
			if app.Format == "table" {
				return writeOut(cmd, app, projectTable(b, projects))
			}
			type row struct {
				model.Project
				Progress int `json:"progress"`
			}
			rows := make([]row, 0, len(projects))
			for _, p := range projects {
				rows = append(rows, row{Project: p, Progress: b.Progress(p.ID)})
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Case-insensitive search over name and description")
	return cmd
}

func newProjectsAddCmd(app *App) *cobra.Command {
	var draft mutate.ProjectDraft

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			b, err := openBoard(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if err := requireActor(b); err != nil {
				return writeErr(cmd, err)
			}

			p, err := b.CreateProject(ctx, draft)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.Format == "table" {
				return writeOut(cmd, app, projectTable(b, []model.Project{p}))
			}
			return writeOut(cmd, app, map[string]any{"data": p})
		},
	}

	cmd.Flags().StringVar(&draft.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&draft.Description, "description", "", "Project description")
	cmd.Flags().BoolVar(&draft.IsShared, "shared", false, "Visible to every area")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project-id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			b, err := openBoard(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if err := requireActor(b); err != nil {
				return writeErr(cmd, err)
			}

			projectID := strings.TrimSpace(args[0])
			if err := b.DeleteProject(ctx, projectID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": projectID}})
		},
	}
}

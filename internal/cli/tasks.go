package cli

import (
	"strings"

	"promanager/internal/format"
	"promanager/internal/model"
	"promanager/internal/mutate"
	"promanager/internal/store"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task commands",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksCompleteCmd(app))
	cmd.AddCommand(newTasksApproveCmd(app))
	cmd.AddCommand(newTasksRejectCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksRmCmd(app))
	return cmd
}

func approvalLabel(t model.Task) string {
	switch {
	case t.PendingReview():
		return "review"
	case t.Approved != nil && *t.Approved:
		return "approved"
	case t.Rejected():
		return "rejected"
	}
	return ""
}

func taskTable(tasks []model.Task) format.Table {
	tbl := format.Table{Headers: []string{"ID", "TITLE", "STATUS", "APPROVAL", "DUE", "PROJECT"}}
	for _, t := range tasks {
		project := ""
		if t.ProjectID != nil {
			project = *t.ProjectID
		}
		tbl.Rows = append(tbl.Rows, []string{
			t.ID, t.Title, string(t.Status), approvalLabel(t), t.DueDate, project,
		})
	}
	return tbl
}

func writeTasks(cmd *cobra.Command, app *App, tasks []model.Task) error {
	if app.Format == "table" {
		return writeOut(cmd, app, taskTable(tasks))
	}
	return writeOut(cmd, app, map[string]any{"data": tasks})
}

func writeTask(cmd *cobra.Command, app *App, t model.Task) error {
	if app.Format == "table" {
		return writeOut(cmd, app, taskTable([]model.Task{t}))
	}
	return writeOut(cmd, app, map[string]any{"data": t})
}

func newTasksListCmd(app *App) *cobra.Command {
	var status string
	var projectID string
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible tasks",
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

			if status != "" && status != "all" {
				if _, err := model.ParseStatus(status); err != nil {
					return writeErr(cmd, err)
				}
			}
			tasks := store.FilterTasks(b.Tasks(), status, query)
			if projectID != "" {
				kept := tasks[:0]
				for _, t := range tasks {
					if t.ProjectID != nil && *t.ProjectID == projectID {
						kept = append(kept, t)
					}
				}
				tasks = kept
			}
			return writeTasks(cmd, app, tasks)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending|progress|completed|all)")
	cmd.Flags().StringVar(&projectID, "project", "", "Filter by project id")
	cmd.Flags().StringVar(&query, "query", "", "Case-insensitive search over title and description")
	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var draft mutate.TaskDraft

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
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

			t, err := b.CreateTask(ctx, draft)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeTask(cmd, app, t)
		},
	}

	cmd.Flags().StringVar(&draft.Title, "title", "", "Task title")
	cmd.Flags().StringVar(&draft.Description, "description", "", "Task description (markdown)")
	cmd.Flags().StringVar(&draft.ProjectID, "project", "", "Project id")
	cmd.Flags().StringVar(&draft.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&draft.AssignedTo, "assign", "", "Assignee profile id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// taskAction wires the shared open/require/act/print shape of the single-task
// mutation commands.
func taskAction(app *App, use, short string, act func(*cobra.Command, *App, string) (model.Task, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := strings.TrimSpace(args[0])
			t, err := act(cmd, app, taskID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeTask(cmd, app, t)
		},
	}
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var to string

	cmd := taskAction(app, "move <task-id>", "Move a task to another column", func(cmd *cobra.Command, app *App, taskID string) (model.Task, error) {
		ctx, cancel := cmdContext(cmd)
		defer cancel()

		st, err := model.ParseStatus(to)
		if err != nil {
			return model.Task{}, err
		}
		b, err := openBoard(ctx, app)
		if err != nil {
			return model.Task{}, err
		}
		defer b.Close()
		if err := requireActor(b); err != nil {
			return model.Task{}, err
		}
		return b.MoveTask(ctx, taskID, st)
	})

	cmd.Flags().StringVar(&to, "to", "", "Target status (pending|progress|completed)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTasksCompleteCmd(app *App) *cobra.Command {
	return taskAction(app, "complete <task-id>", "Toggle a task between done and in progress", func(cmd *cobra.Command, app *App, taskID string) (model.Task, error) {
		ctx, cancel := cmdContext(cmd)
		defer cancel()

		b, err := openBoard(ctx, app)
		if err != nil {
			return model.Task{}, err
		}
		defer b.Close()
		if err := requireActor(b); err != nil {
			return model.Task{}, err
		}
		return b.ToggleTask(ctx, taskID)
	})
}

func newTasksApproveCmd(app *App) *cobra.Command {
	return taskAction(app, "approve <task-id>", "Approve a completed task", func(cmd *cobra.Command, app *App, taskID string) (model.Task, error) {
		ctx, cancel := cmdContext(cmd)
		defer cancel()

		b, err := openBoard(ctx, app)
		if err != nil {
			return model.Task{}, err
		}
		defer b.Close()
		if err := requireActor(b); err != nil {
			return model.Task{}, err
		}
		return b.ApproveTask(ctx, taskID, true)
	})
}

func newTasksRejectCmd(app *App) *cobra.Command {
	return taskAction(app, "reject <task-id>", "Reject a completed task back to in progress", func(cmd *cobra.Command, app *App, taskID string) (model.Task, error) {
		ctx, cancel := cmdContext(cmd)
		defer cancel()

		b, err := openBoard(ctx, app)
		if err != nil {
			return model.Task{}, err
		}
		defer b.Close()
		if err := requireActor(b); err != nil {
			return model.Task{}, err
		}
		return b.ApproveTask(ctx, taskID, false)
	})
}

func newTasksEditCmd(app *App) *cobra.Command {
	var draft mutate.TaskDraft

	cmd := taskAction(app, "edit <task-id>", "Edit a task's fields", func(cmd *cobra.Command, app *App, taskID string) (model.Task, error) {
		ctx, cancel := cmdContext(cmd)
		defer cancel()

		b, err := openBoard(ctx, app)
		if err != nil {
			return model.Task{}, err
		}
		defer b.Close()
		if err := requireActor(b); err != nil {
			return model.Task{}, err
		}

		// Unset flags keep the current value; edit replaces the whole draft.
		cur, ok := b.FindTask(taskID)
		if ok {
			if !cmd.Flags().Changed("title") {
				draft.Title = cur.Title
			}
			if !cmd.Flags().Changed("description") {
				draft.Description = cur.Description
			}
			if !cmd.Flags().Changed("project") && cur.ProjectID != nil {
				draft.ProjectID = *cur.ProjectID
			}
			if !cmd.Flags().Changed("due") {
				draft.DueDate = cur.DueDate
			}
			if !cmd.Flags().Changed("assign") && cur.AssignedTo != nil {
				draft.AssignedTo = *cur.AssignedTo
			}
		}
		return b.UpdateTask(ctx, taskID, draft)
	})

	cmd.Flags().StringVar(&draft.Title, "title", "", "New title")
	cmd.Flags().StringVar(&draft.Description, "description", "", "New description")
	cmd.Flags().StringVar(&draft.ProjectID, "project", "", "New project id (empty clears)")
	cmd.Flags().StringVar(&draft.DueDate, "due", "", "New due date (empty clears)")
	cmd.Flags().StringVar(&draft.AssignedTo, "assign", "", "New assignee (empty clears)")
	return cmd
}

func newTasksRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
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

			taskID := strings.TrimSpace(args[0])
			if err := b.DeleteTask(ctx, taskID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": taskID}})
		},
	}
}

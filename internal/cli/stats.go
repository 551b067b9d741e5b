package cli

import (
	"strconv"

	"promanager/internal/format"

	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show board statistics",
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

			st := b.Stats()
			if app.Format == "table" {
				return writeOut(cmd, app, format.Table{
					Headers: []string{"PROJECTS", "ACTIVE", "DONE TASKS", "OPEN TASKS"},
					Rows: [][]string{{
						strconv.Itoa(st.TotalProjects),
						strconv.Itoa(st.ActiveProjects),
						strconv.Itoa(st.CompletedTasks),
						strconv.Itoa(st.PendingTasks),
					}},
				})
			}
			return writeOut(cmd, app, map[string]any{"data": st})
		},
	}
}

func newAgendaCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "List tasks due on a date",
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
			return writeTasks(cmd, app, b.TasksOn(date))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Due date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

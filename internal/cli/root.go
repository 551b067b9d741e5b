package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"promanager/internal/backend"
	"promanager/internal/board"
	"promanager/internal/format"
	"promanager/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	URL        string
	APIKey     string
	Local      bool
	StateDir   string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "promanager",
		Short:        "Project/task kanban over a hosted or local backend (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI against a local sqlite store
  promanager --local

  # Scriptable commands against a hosted backend
  promanager --url https://db.example.com --api-key $PROMANAGER_API_KEY tasks list

  # Move a task and print the result as a table
  promanager --local --format table tasks move <task-id> --to completed
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.URL, "url", envOr("PROMANAGER_URL", ""), "Backend base URL (hosted mode)")
	cmd.PersistentFlags().StringVar(&app.APIKey, "api-key", envOr("PROMANAGER_API_KEY", ""), "Backend API key (hosted mode)")
	cmd.PersistentFlags().BoolVar(&app.Local, "local", false, "Use a local sqlite store instead of a hosted backend")
	cmd.PersistentFlags().StringVar(&app.StateDir, "state-dir", envOr("PROMANAGER_STATE_DIR", ""), "State directory (sessions, local store; default ~/.promanager)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("PROMANAGER_FORMAT", "json"), "Output format (json|table)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newAgendaCmd(app))
	cmd.AddCommand(newSeedCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWebTUICmd(app))

	return cmd
}

func runTUI(app *App) error {
	ctx := context.Background()
	b, err := openBoard(ctx, app)
	if err != nil {
		return err
	}
	defer b.Close()
	return tui.Run(b)
}

func resolveStateDir(app *App) (string, error) {
	dir := strings.TrimSpace(app.StateDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve state dir: %w", err)
		}
		dir = filepath.Join(home, ".promanager")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	app.StateDir = dir
	return dir, nil
}

// openBackend picks the backend from flags: --local forces sqlite, --url a
// hosted REST backend. With neither, a sqlite store in the state dir keeps
// the tool usable out of the box.
func openBackend(app *App) (backend.Backend, error) {
	dir, err := resolveStateDir(app)
	if err != nil {
		return nil, err
	}
	if app.Local || strings.TrimSpace(app.URL) == "" {
		l, err := backend.OpenLocal(filepath.Join(dir, "promanager.db"))
		if err != nil {
			return nil, err
		}
		if s, err := loadSession(dir); err == nil && s.Valid() {
			l.RestoreSession(s)
		}
		return l, nil
	}
	c := backend.NewClient(strings.TrimSpace(app.URL), strings.TrimSpace(app.APIKey))
	if s, err := loadSession(dir); err == nil && s.Valid() {
		c.RestoreSession(s)
	}
	return c, nil
}

// openBoard opens the backend, resumes any cached session and hydrates the
// store. Commands that need a signed-in actor fail here with a login hint.
func openBoard(ctx context.Context, app *App) (*board.Board, error) {
	be, err := openBackend(app)
	if err != nil {
		return nil, err
	}
	b := board.New(be)
	ok, err := b.Resume(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return b, nil
	}
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func requireActor(b *board.Board) error {
	if b.Actor() == nil {
		return errors.New("not signed in; run `promanager login --email ...` first")
	}
	return nil
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

package cli

import (
	"promanager/internal/backend"

	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the backend with a demo area, profiles, projects and tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			be, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := backend.SeedDemo(ctx, be); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"seeded": true}})
		},
	}
}

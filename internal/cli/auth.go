package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var email string
	var password string
	var signup bool
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			be, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			email = strings.TrimSpace(email)
			var doErr error
			if signup {
				_, doErr = be.SignUp(ctx, email, password, strings.TrimSpace(username))
			} else {
				_, doErr = be.SignIn(ctx, email, password)
			}
			if doErr != nil {
				return writeErr(cmd, doErr)
			}
			s, err := be.GetSession(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := saveSession(app.StateDir, s); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"email":   s.Email,
				"user_id": s.UserID,
			}})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", envOr("PROMANAGER_PASSWORD", ""), "Account password (or PROMANAGER_PASSWORD)")
	cmd.Flags().BoolVar(&signup, "signup", false, "Create the account instead of signing in")
	cmd.Flags().StringVar(&username, "username", "", "Display name for --signup")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the cached session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext(cmd)
			defer cancel()

			be, err := openBackend(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			_ = be.SignOut(ctx)
			if err := clearSession(app.StateDir); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"signedOut": true}})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
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
			return writeOut(cmd, app, map[string]any{"data": b.Actor()})
		},
	}
}

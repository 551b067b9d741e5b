package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"promanager/internal/web"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser kanban dashboard",
		Long: strings.TrimSpace(`
Run the server-rendered kanban dashboard over HTTP.

The server wraps one backend session; signing in through the login page
switches whose board is shown. Board updates stream to the browser over
server-sent events.
`),
		Example: strings.TrimSpace(`
# Serve a local store on localhost
promanager --local serve --addr 127.0.0.1:3335

# Serve against a hosted backend
promanager --url https://db.example.com --api-key $PROMANAGER_API_KEY serve --addr :3335
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := openBoard(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer b.Close()
			if b.Actor() != nil {
				if err := b.Start(ctx); err != nil {
					return writeErr(cmd, err)
				}
			}

			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}

			srv, err := web.NewServer(web.ServerConfig{
				Addr:     listenAddr,
				StateDir: app.StateDir,
			}, b)
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return writeErr(cmd, err)
			}

			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "promanager web running at %s\n", url)

			return http.Serve(ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3335", "Bind address (host:port or :port)")
	return cmd
}

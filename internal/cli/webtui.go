package cli

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"promanager/internal/webtui"

	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the TUI in your browser (PTY + WebSocket, experimental)",
		Long: strings.TrimSpace(`
Run the interactive TUI over the web via a server-side PTY and a browser
terminal emulator. Each browser tab starts a TUI subprocess on the server,
inheriting the backend flags given here.
`),
		Example: strings.TrimSpace(`
# Serve the local store's TUI on localhost
promanager --local webtui --addr 127.0.0.1:3334
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("webtui: missing --addr"))
			}

			// The child re-runs this binary with the same backend selection.
			childArgs := []string{}
			if app.Local {
				childArgs = append(childArgs, "--local")
			}
			if app.URL != "" {
				childArgs = append(childArgs, "--url", app.URL)
			}
			if app.APIKey != "" {
				childArgs = append(childArgs, "--api-key", app.APIKey)
			}
			if app.StateDir != "" {
				childArgs = append(childArgs, "--state-dir", app.StateDir)
			}

			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr: listenAddr,
				Args: childArgs,
			})
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
			fmt.Fprintf(cmd.ErrOrStderr(), "promanager webtui running at %s\n", url)

			return http.Serve(ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3334", "Bind address (host:port or :port)")
	return cmd
}

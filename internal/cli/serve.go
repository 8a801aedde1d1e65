package cli

import (
	"github.com/spf13/cobra"

	"github.com/cantai/cifra/internal/server"
	"github.com/cantai/cifra/pkg/buildinfo"
)

// serveCommand creates the serve command, which runs the HTTP API and the
// live-editor WebSocket until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		store string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the render API and live editor",
		Long: `Serve exposes the render pipeline over HTTP:

  GET    /healthz
  POST   /api/v1/detect
  POST   /api/v1/render
  GET    /api/v1/previews
  POST   /api/v1/previews
  GET    /api/v1/previews/{id}
  DELETE /api/v1/previews/{id}
  GET    /api/v1/live            WebSocket live editor

The cache and preview store come from the config file. On interrupt the
server stops accepting requests and drains in-flight ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			st, err := c.openStore(ctx, store)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(server.Options{
				Runner:          runner,
				Store:           st,
				Logger:          c.Logger,
				Spelling:        c.Config.Render.Spelling,
				MaxBytes:        c.Config.Render.MaxBytes,
				ReadTimeout:     c.Config.Server.ReadTimeout.Duration,
				WriteTimeout:    c.Config.Server.WriteTimeout.Duration,
				ShutdownTimeout: c.Config.Server.ShutdownTimeout.Duration,
				AllowedOrigins:  c.Config.Server.AllowedOrigins,
			})

			printSuccess("cifra %s listening on %s", buildinfo.Version, StyleHighlight.Render(addr))
			printDetail("cache: %s  store: %s", c.Config.Cache.Backend, storeName(store, c.Config.Store.Backend))
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return err
			}
			printInfo("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&store, "store", "", "preview store: sqlite, mongo, memory (default from config)")

	return cmd
}

func storeName(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

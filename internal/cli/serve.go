package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/sketchcanvas/internal/server"
	"github.com/matzehuels/sketchcanvas/pkg/buildinfo"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API used by the drawing client.

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			gen, err := c.newGenerator(cfg)
			if err != nil {
				return err
			}
			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			c.Logger.Info("starting", "build", buildinfo.String(), "store", cfg.Store.Backend)
			return server.New(cfg.Server, gen, store, c.Logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

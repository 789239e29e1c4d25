package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/api"
	"github.com/matzehuels/flowgraph/pkg/buildinfo"
	"github.com/matzehuels/flowgraph/pkg/cache"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		backend string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog, validator and converters over HTTP",
		Long: `Serve the catalog, validator and converters over HTTP.

The server is stateless; every request carries its workflow. Validation
reports are memoized in the configured cache. Use the redis backend to share
them between replicas:

  flowgraph serve --addr :9000 --cache redis

Routes:
  GET  /healthz
  GET  /catalog, /catalog/{id}, /catalog/{id}/defaults
  POST /definitions/validate, /definitions/canvas, /definitions/migrate
  POST /canvas/definition
  POST /workflows/transition`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Serve.Addr
			}
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			store, err := c.newCache(ctx, backend)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := api.New(cat,
				api.WithCache(store, c.cacheTTL()),
				api.WithKeyer(cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")),
				api.WithLogger(c.Logger.WithPrefix("http")),
			)
			printInfo("Serving %s on %s", plural(cat.Len(), "node type"), StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&backend, "cache", "", "cache backend: file, redis or none (default from config)")
	return cmd
}

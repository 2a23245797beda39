package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/velopane/velopane/internal/api"
	"github.com/velopane/velopane/pkg/cache"
	"github.com/velopane/velopane/pkg/dataset/h5ad"
)

// serveCommand creates the serve command exposing plots over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve [dataset.h5ad]",
		Short: "Serve plots from a dataset over HTTP",
		Long: `Load a dataset once and expose plot rendering over an HTTP API.

Endpoints:
  GET /healthz          server and dataset status
  GET /genes?q=...      list gene names, optionally filtered
  GET /plot?genes=...   render a figure (format: svg, png, pdf)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			spinner := newSpinnerWithContext(ctx, "Loading "+filepath.Base(args[0]))
			spinner.Start()
			ds, err := h5ad.Load(args[0])
			if err != nil {
				spinner.StopWithError("Failed to load dataset")
				return err
			}
			dsHash, err := cache.HashFile(args[0])
			if err != nil {
				spinner.Stop()
				return err
			}
			spinner.StopWithSuccess("Loaded dataset")

			store := c.newCache(ctx, noCache)
			defer store.Close()

			printInfo("Serving %s on %s", filepath.Base(args[0]), addr)
			return api.New(c.Logger, ds, dsHash, store).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", c.Config.Server.Addr, "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the artifact cache")

	return cmd
}

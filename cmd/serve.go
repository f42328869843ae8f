package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vidmeta/internal/config"
	"vidmeta/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the batch API over HTTP",
	Long: `Serve runs an HTTP API in front of the same pipeline used by the CLI:

  POST /v1/batches     {"urls": [...], "bypass_cache": false, "workers": 10}
  GET  /v1/cache       cache statistics
  GET  /v1/cache/{id}  one cached record
  GET  /healthz
  GET  /metrics        Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: serveRun,
}

func init() {
	serveCmd.Flags().StringVarP(&flagListen, "listen", "l", "", "Listen address (default 127.0.0.1:8080)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(p.orch, p.store, p.registry, logger, server.Options{
		MaxURLs:    cfg.MaxURLs,
		Workers:    cfg.Workers,
		MaxWorkers: config.MaxWorkers,
	})
	return srv.ListenAndServe(ctx, cfg.Listen)
}

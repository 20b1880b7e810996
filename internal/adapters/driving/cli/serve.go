package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/storefront-source/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/storefront-source/internal/logger"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Source content and serve the nodes over HTTP",
	Long: `Starts an HTTP server exposing the node store, sources the selected
families once and, with --interval, again on every tick.

Endpoints:
  GET /healthz      liveness
  GET /nodes        nodes, optionally filtered with ?type=ShopifyPage
  GET /nodes/{id}   a single node
  GET /report       outcome of the latest run
  GET /metrics      Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addOptionFlags(serveCmd.Flags())
	serveCmd.Flags().String("store", "memory", "node store: memory, sqlite or neo4j")
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
	serveCmd.Flags().Duration("interval", 0, "re-source on this interval (0 = once)")
	serveCmd.Flags().Bool("prune", false, "delete stored nodes of the sourced families not seen in a run")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if !configured() {
		return errors.New("sourcing service not configured")
	}

	opts, _, err := resolveOptions(cmd.Flags())
	if err != nil {
		return err
	}
	kind, _ := cmd.Flags().GetString("store")
	addr, _ := cmd.Flags().GetString("addr")
	interval, _ := cmd.Flags().GetDuration("interval")
	prune, _ := cmd.Flags().GetBool("prune")

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cliConfig.OpenStore(ctx, kind)
	if err != nil {
		return fmt.Errorf("open %s store: %w", kind, err)
	}
	defer store.Close()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	api := httpapi.New(store, cliConfig.Gatherer)
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	cmd.Printf("Serving nodes on http://%s\n", listener.Addr())

	run := func() {
		report, err := sourceOnce(ctx, cmd, store, opts, prune)
		api.SetReport(report, err)
		if err != nil {
			logger.Error("%v", err)
		}
	}
	run()

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serve: %w", err)
		case <-tick:
			run()
		}
	}
}

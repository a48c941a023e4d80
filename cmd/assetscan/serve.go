package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/assetscan/assetscan/internal/config"
	"github.com/assetscan/assetscan/internal/findings"
	httpapp "github.com/assetscan/assetscan/internal/http"
	"github.com/assetscan/assetscan/internal/metrics"
	"github.com/assetscan/assetscan/internal/scan"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the background scan scheduler.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	orch := scan.NewOrchestrator(stores.resources, stores.rules, stores.findings)
	orch.SetWorkers(cfg.ScanWorkers)
	orch.SetBatchSize(cfg.ScanBatchSize)

	scheduler := scan.Scheduler{Scanner: orch, Interval: cfg.ScanInterval}
	go scheduler.Run(ctx)

	metrics.StartServer(ctx, cfg.MetricsAddr)

	srv, err := httpapp.NewEchoServer(stores.resources, stores.rules, findings.Aggregator{Store: stores.findings}, orch)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- srv.StartServer(httpServer)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

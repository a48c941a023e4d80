package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/assetscan/assetscan/internal/config"
	"github.com/assetscan/assetscan/internal/scan"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one full scan and exit.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan()
	},
}

func runScan() error {
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

	result, err := orch.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("scan finished",
		"resources_scanned", result.ResourcesScanned,
		"rules_evaluated", result.RulesEvaluated,
		"findings_created", result.FindingsCreated,
	)
	return nil
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/assetscan/assetscan/internal/config"
	"github.com/assetscan/assetscan/internal/connectors"
	"github.com/assetscan/assetscan/internal/connectors/aws"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a one-off resource discovery against AWS (if configured).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync()
	},
}

func runSync() error {
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

	conns, err := buildConnectors(ctx, cfg)
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		return errors.New("no discovery connectors enabled, set AWS_DISCOVERY_ENABLED=1")
	}

	runner := connectors.Runner{Store: stores.resources, Connectors: conns}
	return runner.RunOnce(ctx)
}

func buildConnectors(ctx context.Context, cfg config.Config) ([]connectors.Connector, error) {
	var out []connectors.Connector
	if cfg.AWSDiscoveryEnabled {
		conn, err := aws.New(ctx, aws.Config{Region: cfg.AWSRegion, Name: cfg.AWSSourceName})
		if err != nil {
			return nil, err
		}
		out = append(out, conn)
	}
	return out, nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/config"
	"github.com/assetscan/assetscan/internal/rules"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed sample rules and resources into the database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func runSeed() error {
	cfg, err := config.LoadRequireDB()
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

	seedRules := sampleRules()
	if errs := rules.ValidateAll(seedRules); len(errs) > 0 {
		return errors.Join(errs...)
	}

	nRules, err := stores.rules.UpsertRules(ctx, seedRules)
	if err != nil {
		return err
	}
	nResources, err := stores.resources.UpsertResources(ctx, sampleResources())
	if err != nil {
		return err
	}

	slog.Info("seeded sample data", "rules", nRules, "resources", nResources)
	return nil
}

func sampleRules() []rules.Rule {
	return []rules.Rule{
		{
			ID:           "seed-public-ec2",
			Name:         "EC2 instance has a public IP",
			Description:  "Instances reachable from the internet widen the attack surface.",
			Field:        "public_ip",
			Op:           rules.OpEq,
			Value:        rules.Scalar("true"),
			Severity:     rules.SeverityHigh,
			ResourceType: "ec2_instance",
		},
		{
			ID:           "seed-unencrypted-bucket",
			Name:         "S3 bucket without server-side encryption",
			Description:  "Bucket contents are stored unencrypted at rest.",
			Field:        "encryption",
			Op:           rules.OpEq,
			Value:        rules.Scalar("false"),
			Severity:     rules.SeverityHigh,
			ResourceType: "s3_bucket",
		},
		{
			ID:          "seed-region-allowlist",
			Name:        "Resource outside approved regions",
			Description: "Assets must stay in the approved deployment regions.",
			Field:       "region",
			Op:          rules.OpNotIn,
			Value:       rules.List("us-east-1", "eu-west-1"),
			Severity:    rules.SeverityMedium,
		},
		{
			ID:           "seed-admin-port",
			Name:         "Database port exposed below 1024",
			Description:  "Well-known ports suggest a service listening on a default.",
			Field:        "port",
			Op:           rules.OpLt,
			Value:        rules.Scalar("1024"),
			Severity:     rules.SeverityLow,
			ResourceType: "rds_instance",
		},
	}
}

func sampleResources() []asset.Resource {
	return []asset.Resource{
		{
			ID:           "seed-i-0001",
			Name:         "edge-proxy",
			ResourceType: "ec2_instance",
			Region:       "us-east-1",
			Fields: map[string]any{
				"public_ip":     true,
				"instance_type": "t3.micro",
				"state":         "running",
				"tags":          map[string]any{"env": "prod"},
			},
		},
		{
			ID:           "seed-bucket-logs",
			Name:         "audit-logs",
			ResourceType: "s3_bucket",
			Region:       "eu-west-1",
			Fields: map[string]any{
				"encryption": false,
			},
		},
		{
			ID:           "seed-rds-0001",
			Name:         "orders-db",
			ResourceType: "rds_instance",
			Region:       "ap-south-1",
			Fields: map[string]any{
				"port":   5432,
				"engine": "postgres",
			},
		},
	}
}

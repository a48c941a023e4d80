package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/config"
	"github.com/assetscan/assetscan/internal/findings"
	"github.com/assetscan/assetscan/internal/rules"
	"github.com/assetscan/assetscan/internal/store/memory"
	"github.com/assetscan/assetscan/internal/store/postgres"
)

// storeSet bundles the three store contracts, backed either by one Postgres
// store or one in-memory store.
type storeSet struct {
	resources asset.Store
	rules     rules.Store
	findings  findings.Store

	pool *pgxpool.Pool
}

func (s *storeSet) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func openStores(ctx context.Context, cfg config.Config) (*storeSet, error) {
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL not set, using in-memory store")
		mem := memory.New()
		return &storeSet{resources: mem, rules: mem, findings: mem}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	st, err := postgres.New(pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &storeSet{resources: st, rules: st, findings: st, pool: pool}, nil
}

// Package connectors discovers cloud resources and feeds them into the
// resource store through the same bulk-upsert path uploads use.
package connectors

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/metrics"
)

// Connector discovers resources from one external source.
type Connector interface {
	Kind() string
	Name() string
	Discover(ctx context.Context) ([]asset.Resource, error)
}

// Runner runs a set of connectors and upserts whatever they discover.
// Discovered resources become visible to the next scan snapshot, never to a
// scan already in flight.
type Runner struct {
	Store      asset.Store
	Connectors []Connector
}

// RunOnce discovers from every connector concurrently and upserts the
// results. The first connector error is returned after all of them finish.
func (r *Runner) RunOnce(ctx context.Context) error {
	var g errgroup.Group
	for _, conn := range r.Connectors {
		g.Go(func() error {
			discovered, err := conn.Discover(ctx)
			if err != nil {
				slog.Error("discovery failed", "kind", conn.Kind(), "name", conn.Name(), "err", err)
				return fmt.Errorf("%s/%s discovery: %w", conn.Kind(), conn.Name(), err)
			}

			if len(discovered) > 0 {
				if _, err := r.Store.UpsertResources(ctx, discovered); err != nil {
					return fmt.Errorf("%s/%s upsert: %w", conn.Kind(), conn.Name(), err)
				}
			}
			metrics.DiscoveredResources.WithLabelValues(conn.Kind(), conn.Name()).Set(float64(len(discovered)))
			slog.Info("discovery completed", "kind", conn.Kind(), "name", conn.Name(), "resources", len(discovered))
			return nil
		})
	}
	return g.Wait()
}

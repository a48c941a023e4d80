package connectors

import (
	"context"
	"errors"
	"testing"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/store/memory"
)

type stubConnector struct {
	kind      string
	name      string
	resources []asset.Resource
	err       error
}

func (s stubConnector) Kind() string { return s.kind }
func (s stubConnector) Name() string { return s.name }

func (s stubConnector) Discover(ctx context.Context) ([]asset.Resource, error) {
	return s.resources, s.err
}

func TestRunnerUpsertsDiscoveredResources(t *testing.T) {
	t.Parallel()

	st := memory.New()
	runner := Runner{
		Store: st,
		Connectors: []Connector{
			stubConnector{kind: "aws", name: "prod", resources: []asset.Resource{
				{ID: "i-1", Name: "web-1", ResourceType: "ec2_instance"},
				{ID: "b-1", Name: "logs", ResourceType: "s3_bucket"},
			}},
			stubConnector{kind: "aws", name: "staging", resources: []asset.Resource{
				{ID: "i-2", Name: "web-2", ResourceType: "ec2_instance"},
			}},
		},
	}

	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	all, err := st.SnapshotResources(context.Background())
	if err != nil {
		t.Fatalf("SnapshotResources() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("stored %d resources, want 3", len(all))
	}
}

func TestRunnerReportsConnectorFailure(t *testing.T) {
	t.Parallel()

	st := memory.New()
	runner := Runner{
		Store: st,
		Connectors: []Connector{
			stubConnector{kind: "aws", name: "ok", resources: []asset.Resource{{ID: "i-1", Name: "web-1"}}},
			stubConnector{kind: "aws", name: "broken", err: errors.New("throttled")},
		},
	}

	if err := runner.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() error = nil, want connector failure")
	}

	// The healthy connector's resources still land.
	all, err := st.SnapshotResources(context.Background())
	if err != nil {
		t.Fatalf("SnapshotResources() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("stored %d resources, want 1", len(all))
	}
}

package findings

import (
	"context"
	"time"

	"github.com/assetscan/assetscan/internal/rules"
)

// Finding records that a rule's risk condition matched a resource in a
// specific completed scan. The resource's name, type, and region are
// denormalized at write time so dashboard reads never join back to the
// resource store.
type Finding struct {
	ID              string         `json:"id"`
	ResourceID      string         `json:"resource_id"`
	ResourceName    string         `json:"resource_name"`
	ResourceType    string         `json:"resource_type"`
	Region          string         `json:"region,omitempty"`
	RuleName        string         `json:"rule_name"`
	RuleDescription string         `json:"rule_description"`
	Severity        rules.Severity `json:"severity"`
	Field           string         `json:"field"`
	ActualValue     string         `json:"actual_value"`
	ExpectedValue   string         `json:"expected_value"`
	Operator        rules.Operator `json:"operator"`
	CreatedAt       time.Time      `json:"created_at"`
	ScanID          string         `json:"-"`
}

// TypeCount is one row of the issues-by-resource-type aggregation.
type TypeCount struct {
	ResourceType string `json:"resource_type"`
	Count        int64  `json:"count"`
}

// RegionCount is one row of the issues-by-region aggregation.
type RegionCount struct {
	Region string `json:"region"`
	Count  int64  `json:"count"`
}

// Store holds scan-tagged finding generations. Writes happen exclusively in
// the scan orchestrator's commit step; reads always resolve the current
// generation through the scan-id pointer, so a half-written generation is
// never observable.
type Store interface {
	// InsertFindings writes findings for a not-yet-current scan generation.
	InsertFindings(ctx context.Context, batch []Finding) error
	// SetCurrentScan flips the pointer marking scanID's generation as the one
	// reads resolve. This is the single externally-visible side effect of a
	// successful scan.
	SetCurrentScan(ctx context.Context, scanID string) error
	CurrentScanID(ctx context.Context) (string, error)
	ListCurrentFindings(ctx context.Context) ([]Finding, error)
	// DeleteScanGeneration removes a superseded generation's findings.
	DeleteScanGeneration(ctx context.Context, scanID string) (int64, error)

	SeverityCounts(ctx context.Context) (map[rules.Severity]int64, error)
	CountsByResourceType(ctx context.Context) ([]TypeCount, error)
	CountsByRegion(ctx context.Context) ([]RegionCount, error)
}

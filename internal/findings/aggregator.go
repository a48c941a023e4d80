package findings

import (
	"context"
	"sort"

	"github.com/assetscan/assetscan/internal/rules"
)

// RegionUnknown stands in for findings whose resource carried no region.
const RegionUnknown = "unknown"

// Aggregator serves the dashboard read queries over the current finding
// generation.
type Aggregator struct {
	Store Store
}

// ListFindings returns the current generation's findings.
func (a Aggregator) ListFindings(ctx context.Context) ([]Finding, error) {
	return a.Store.ListCurrentFindings(ctx)
}

// SeverityStatus returns finding counts for all five severity levels,
// zero-filled for levels with no findings.
func (a Aggregator) SeverityStatus(ctx context.Context) (map[rules.Severity]int64, error) {
	counts, err := a.Store.SeverityCounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[rules.Severity]int64, len(rules.Severities))
	for _, s := range rules.Severities {
		out[s] = 0
	}
	for s, n := range counts {
		if _, ok := out[s]; ok {
			out[s] = n
		}
	}
	return out, nil
}

// IssuesByResourceType groups current findings on their denormalized
// resource_type column, largest buckets first.
func (a Aggregator) IssuesByResourceType(ctx context.Context) ([]TypeCount, error) {
	counts, err := a.Store.CountsByResourceType(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].ResourceType < counts[j].ResourceType
	})
	return counts, nil
}

// IssuesByRegion groups current findings on their denormalized region
// column. Findings without a region are reported under "unknown".
func (a Aggregator) IssuesByRegion(ctx context.Context) ([]RegionCount, error) {
	counts, err := a.Store.CountsByRegion(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]int64, len(counts))
	for _, rc := range counts {
		region := rc.Region
		if region == "" {
			region = RegionUnknown
		}
		merged[region] += rc.Count
	}

	out := make([]RegionCount, 0, len(merged))
	for region, n := range merged {
		out = append(out, RegionCount{Region: region, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Region < out[j].Region
	})
	return out, nil
}

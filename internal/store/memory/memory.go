// Package memory is a mutex-guarded in-process document store. It backs
// tests and DATABASE_URL-less runs with the same contracts the Postgres
// store implements.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/findings"
	"github.com/assetscan/assetscan/internal/rules"
	"github.com/google/uuid"
)

// Store implements asset.Store, rules.Store, and findings.Store in memory.
type Store struct {
	mu sync.RWMutex

	resources map[string]asset.Resource
	ruleSet   map[string]rules.Rule
	found     []findings.Finding
	current   string
}

func New() *Store {
	return &Store{
		resources: make(map[string]asset.Resource),
		ruleSet:   make(map[string]rules.Rule),
	}
}

// --- asset.Store ---

func (s *Store) UpsertResources(ctx context.Context, batch []asset.Resource) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range batch {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
		}
		s.resources[r.ID] = r
	}
	return int64(len(batch)), nil
}

func (s *Store) ListResources(ctx context.Context, q asset.ListQuery) (asset.Page, error) {
	q = q.Normalized()

	s.mu.RLock()
	matched := make([]asset.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if !resourceMatches(r, q.Filter) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(q.Search)) {
			continue
		}
		matched = append(matched, r)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := sortKey(matched[i], q.SortBy), sortKey(matched[j], q.SortBy)
		if a == b {
			return matched[i].ID < matched[j].ID
		}
		if q.SortOrder == "desc" {
			return a > b
		}
		return a < b
	})

	total := int64(len(matched))
	start := (q.PageNumber - 1) * q.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+q.PageSize, len(matched))

	return asset.Page{
		Data:       append([]asset.Resource(nil), matched[start:end]...),
		Total:      total,
		PageSize:   q.PageSize,
		PageNumber: q.PageNumber,
	}, nil
}

func (s *Store) SnapshotResources(ctx context.Context) ([]asset.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]asset.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteResources(ctx context.Context, f asset.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, r := range s.resources {
		if resourceMatches(r, f) {
			delete(s.resources, id)
			deleted++
		}
	}
	return deleted, nil
}

func sortKey(r asset.Resource, sortBy string) string {
	switch sortBy {
	case "resource_type":
		return r.ResourceType
	case "region":
		return r.Region
	default:
		return r.Name
	}
}

func resourceMatches(r asset.Resource, f asset.Filter) bool {
	for key, want := range f {
		got, ok := r.Field(key)
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// --- rules.Store ---

func (s *Store) UpsertRules(ctx context.Context, batch []rules.Rule) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range batch {
		if strings.TrimSpace(r.ID) == "" {
			r.ID = uuid.NewString()
		}
		s.ruleSet[r.ID] = r
	}
	return int64(len(batch)), nil
}

func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]rules.Rule, 0, len(s.ruleSet))
	for _, r := range s.ruleSet {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteRules(ctx context.Context, f rules.Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, r := range s.ruleSet {
		if ruleMatches(r, f) {
			delete(s.ruleSet, id)
			deleted++
		}
	}
	return deleted, nil
}

func ruleMatches(r rules.Rule, f rules.Filter) bool {
	for key, want := range f {
		var got string
		switch key {
		case "id":
			got = r.ID
		case "name":
			got = r.Name
		case "field":
			got = r.Field
		case "op":
			got = string(r.Op)
		case "severity":
			got = string(r.Severity)
		case "resource_type":
			got = r.ResourceType
		default:
			return false
		}
		if got != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// --- findings.Store ---

func (s *Store) InsertFindings(ctx context.Context, batch []findings.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.found = append(s.found, batch...)
	return nil
}

func (s *Store) SetCurrentScan(ctx context.Context, scanID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = scanID
	return nil
}

func (s *Store) CurrentScanID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *Store) ListCurrentFindings(ctx context.Context) ([]findings.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]findings.Finding, 0, len(s.found))
	for _, f := range s.found {
		if f.ScanID == s.current && s.current != "" {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) DeleteScanGeneration(ctx context.Context, scanID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.found[:0]
	var deleted int64
	for _, f := range s.found {
		if f.ScanID == scanID {
			deleted++
			continue
		}
		kept = append(kept, f)
	}
	s.found = kept
	return deleted, nil
}

func (s *Store) SeverityCounts(ctx context.Context) (map[rules.Severity]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[rules.Severity]int64)
	for _, f := range s.found {
		if f.ScanID == s.current && s.current != "" {
			out[f.Severity]++
		}
	}
	return out, nil
}

func (s *Store) CountsByResourceType(ctx context.Context) ([]findings.TypeCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, f := range s.found {
		if f.ScanID == s.current && s.current != "" {
			counts[f.ResourceType]++
		}
	}
	out := make([]findings.TypeCount, 0, len(counts))
	for rt, n := range counts {
		out = append(out, findings.TypeCount{ResourceType: rt, Count: n})
	}
	return out, nil
}

func (s *Store) CountsByRegion(ctx context.Context) ([]findings.RegionCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, f := range s.found {
		if f.ScanID == s.current && s.current != "" {
			counts[f.Region]++
		}
	}
	out := make([]findings.RegionCount, 0, len(counts))
	for region, n := range counts {
		out = append(out, findings.RegionCount{Region: region, Count: n})
	}
	return out, nil
}

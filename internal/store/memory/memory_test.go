package memory

import (
	"context"
	"testing"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/findings"
	"github.com/assetscan/assetscan/internal/rules"
)

func TestUpsertResourcesAssignsIDs(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()

	n, err := st.UpsertResources(ctx, []asset.Resource{
		{Name: "web-1", ResourceType: "ec2"},
		{ID: "fixed", Name: "db-1", ResourceType: "rds"},
	})
	if err != nil {
		t.Fatalf("UpsertResources() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("UpsertResources() = %d, want 2", n)
	}

	all, err := st.SnapshotResources(ctx)
	if err != nil {
		t.Fatalf("SnapshotResources() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("SnapshotResources() returned %d resources, want 2", len(all))
	}
	for _, r := range all {
		if r.ID == "" {
			t.Fatalf("resource %q has empty id after upsert", r.Name)
		}
	}

	// Upserting the same id replaces, not duplicates.
	if _, err := st.UpsertResources(ctx, []asset.Resource{{ID: "fixed", Name: "db-1-renamed"}}); err != nil {
		t.Fatalf("UpsertResources() error = %v", err)
	}
	all, _ = st.SnapshotResources(ctx)
	if len(all) != 2 {
		t.Fatalf("SnapshotResources() returned %d resources after re-upsert, want 2", len(all))
	}
}

func TestListResourcesFilterSearchPaging(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	seed := []asset.Resource{
		{ID: "1", Name: "alpha", ResourceType: "ec2", Region: "us-east-1", Fields: map[string]any{"public_ip": true}},
		{ID: "2", Name: "bravo", ResourceType: "ec2", Region: "eu-west-1", Fields: map[string]any{"public_ip": false}},
		{ID: "3", Name: "charlie", ResourceType: "s3", Region: "us-east-1"},
	}
	if _, err := st.UpsertResources(ctx, seed); err != nil {
		t.Fatalf("UpsertResources() error = %v", err)
	}

	page, err := st.ListResources(ctx, asset.ListQuery{Filter: asset.Filter{"resource_type": "ec2"}})
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if page.Total != 2 || len(page.Data) != 2 {
		t.Fatalf("filtered list total = %d, data = %d, want 2/2", page.Total, len(page.Data))
	}

	page, err = st.ListResources(ctx, asset.ListQuery{Filter: asset.Filter{"public_ip": true}})
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if page.Total != 1 || page.Data[0].Name != "alpha" {
		t.Fatalf("document filter = %+v", page.Data)
	}

	page, err = st.ListResources(ctx, asset.ListQuery{Search: "RAV"})
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if page.Total != 1 || page.Data[0].Name != "bravo" {
		t.Fatalf("search = %+v", page.Data)
	}

	page, err = st.ListResources(ctx, asset.ListQuery{PageNumber: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if page.Total != 3 || len(page.Data) != 1 || page.PageNumber != 2 {
		t.Fatalf("second page = %+v", page)
	}

	page, err = st.ListResources(ctx, asset.ListQuery{SortBy: "name", SortOrder: "desc", PageSize: 1})
	if err != nil {
		t.Fatalf("ListResources() error = %v", err)
	}
	if page.Data[0].Name != "charlie" {
		t.Fatalf("desc sort first = %q, want charlie", page.Data[0].Name)
	}
}

func TestDeleteResourcesByFilter(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	if _, err := st.UpsertResources(ctx, []asset.Resource{
		{ID: "1", Name: "alpha", ResourceType: "ec2"},
		{ID: "2", Name: "bravo", ResourceType: "ec2"},
		{ID: "3", Name: "charlie", ResourceType: "s3"},
	}); err != nil {
		t.Fatalf("UpsertResources() error = %v", err)
	}

	n, err := st.DeleteResources(ctx, asset.Filter{"resource_type": "ec2"})
	if err != nil {
		t.Fatalf("DeleteResources() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("DeleteResources() = %d, want 2", n)
	}
	all, _ := st.SnapshotResources(ctx)
	if len(all) != 1 || all[0].Name != "charlie" {
		t.Fatalf("remaining resources = %+v", all)
	}
}

func TestRuleStore(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()
	if _, err := st.UpsertRules(ctx, []rules.Rule{
		{ID: "a", Name: "public ip", Field: "public_ip", Op: rules.OpEq, Value: rules.Scalar("true"), Severity: rules.SeverityHigh},
		{Name: "no encryption", Field: "encryption", Op: rules.OpEq, Value: rules.Scalar("false"), Severity: rules.SeverityCritical},
	}); err != nil {
		t.Fatalf("UpsertRules() error = %v", err)
	}

	list, err := st.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListRules() returned %d rules, want 2", len(list))
	}

	n, err := st.DeleteRules(ctx, rules.Filter{"severity": "HIGH"})
	if err != nil {
		t.Fatalf("DeleteRules() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("DeleteRules() = %d, want 1", n)
	}
	list, _ = st.ListRules(ctx)
	if len(list) != 1 || list[0].Name != "no encryption" {
		t.Fatalf("remaining rules = %+v", list)
	}
}

func TestFindingGenerations(t *testing.T) {
	t.Parallel()

	st := New()
	ctx := context.Background()

	genA := []findings.Finding{
		{ID: "f1", ScanID: "scan-a", ResourceType: "ec2", Region: "us-east-1", Severity: rules.SeverityHigh},
		{ID: "f2", ScanID: "scan-a", ResourceType: "s3", Severity: rules.SeverityLow},
	}
	if err := st.InsertFindings(ctx, genA); err != nil {
		t.Fatalf("InsertFindings() error = %v", err)
	}

	// Nothing visible until the pointer flips.
	list, err := st.ListCurrentFindings(ctx)
	if err != nil {
		t.Fatalf("ListCurrentFindings() error = %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("ListCurrentFindings() = %d findings before flip, want 0", len(list))
	}

	if err := st.SetCurrentScan(ctx, "scan-a"); err != nil {
		t.Fatalf("SetCurrentScan() error = %v", err)
	}
	list, _ = st.ListCurrentFindings(ctx)
	if len(list) != 2 {
		t.Fatalf("ListCurrentFindings() = %d findings, want 2", len(list))
	}

	genB := []findings.Finding{{ID: "f3", ScanID: "scan-b", ResourceType: "ec2", Severity: rules.SeverityMedium}}
	if err := st.InsertFindings(ctx, genB); err != nil {
		t.Fatalf("InsertFindings() error = %v", err)
	}
	if err := st.SetCurrentScan(ctx, "scan-b"); err != nil {
		t.Fatalf("SetCurrentScan() error = %v", err)
	}

	counts, err := st.SeverityCounts(ctx)
	if err != nil {
		t.Fatalf("SeverityCounts() error = %v", err)
	}
	if counts[rules.SeverityMedium] != 1 || counts[rules.SeverityHigh] != 0 {
		t.Fatalf("SeverityCounts() = %v after flip", counts)
	}

	n, err := st.DeleteScanGeneration(ctx, "scan-a")
	if err != nil {
		t.Fatalf("DeleteScanGeneration() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("DeleteScanGeneration() = %d, want 2", n)
	}

	current, err := st.CurrentScanID(ctx)
	if err != nil {
		t.Fatalf("CurrentScanID() error = %v", err)
	}
	if current != "scan-b" {
		t.Fatalf("CurrentScanID() = %q, want scan-b", current)
	}

	types, err := st.CountsByResourceType(ctx)
	if err != nil {
		t.Fatalf("CountsByResourceType() error = %v", err)
	}
	if len(types) != 1 || types[0].ResourceType != "ec2" || types[0].Count != 1 {
		t.Fatalf("CountsByResourceType() = %v", types)
	}
}

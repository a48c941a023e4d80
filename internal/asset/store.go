package asset

import (
	"context"
	"strings"
)

// Filter is a top-level equality filter over resource documents, the same
// shape the bulk upload and delete endpoints accept.
type Filter map[string]any

// ListQuery drives the paginated resource listing.
type ListQuery struct {
	Filter     Filter
	PageNumber int
	PageSize   int
	SortBy     string
	SortOrder  string
	Search     string
}

// Normalized applies the listing defaults.
func (q ListQuery) Normalized() ListQuery {
	out := q
	if out.PageNumber < 1 {
		out.PageNumber = 1
	}
	if out.PageSize < 1 {
		out.PageSize = 10
	}
	switch strings.TrimSpace(out.SortBy) {
	case "resource_type", "region":
		out.SortBy = strings.TrimSpace(out.SortBy)
	default:
		out.SortBy = "name"
	}
	if strings.ToLower(strings.TrimSpace(out.SortOrder)) == "desc" {
		out.SortOrder = "desc"
	} else {
		out.SortOrder = "asc"
	}
	out.Search = strings.TrimSpace(out.Search)
	return out
}

// Page is one page of resources plus the listing envelope counters.
type Page struct {
	Data       []Resource `json:"data"`
	Total      int64      `json:"total"`
	PageSize   int        `json:"page_size"`
	PageNumber int        `json:"page_number"`
}

// Store is the resource document store contract. The scan engine only ever
// reads from it; writes come from bulk uploads and discovery connectors.
type Store interface {
	UpsertResources(ctx context.Context, resources []Resource) (int64, error)
	ListResources(ctx context.Context, q ListQuery) (Page, error)
	// SnapshotResources returns the full resource set for a scan. Resources written
	// after the snapshot is taken are picked up by the next scan.
	SnapshotResources(ctx context.Context) ([]Resource, error)
	DeleteResources(ctx context.Context, f Filter) (int64, error)
}

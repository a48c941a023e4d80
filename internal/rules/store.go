package rules

import "context"

// Filter is a top-level equality filter over rule attributes, used by the
// bulk delete endpoint.
type Filter map[string]any

// Store is the rule store contract. Rules are validated before they are
// written; the evaluator can assume every stored rule is well formed.
type Store interface {
	UpsertRules(ctx context.Context, batch []Rule) (int64, error)
	ListRules(ctx context.Context) ([]Rule, error)
	DeleteRules(ctx context.Context, f Filter) (int64, error)
}

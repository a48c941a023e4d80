package engine

import (
	"strings"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/rules"
)

// ApplicableRules selects the rules that apply to a resource: a rule with an
// empty resource_type applies to every resource, otherwise the types must
// match exactly. O(rules) per resource; the cross product dominates scan
// cost, not this filter.
func ApplicableRules(res asset.Resource, all []rules.Rule) []rules.Rule {
	out := make([]rules.Rule, 0, len(all))
	for _, r := range all {
		rt := strings.TrimSpace(r.ResourceType)
		if rt == "" || rt == res.ResourceType {
			out = append(out, r)
		}
	}
	return out
}

package engine

import (
	"fmt"
	"strings"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/rules"
)

// EvaluateRule checks one rule against one resource. A true result means the
// rule's risk condition was observed and a finding should be emitted.
//
// A resource that lacks the rule's field never matches, for any operator.
// Partially-populated documents are common in bulk uploads and absence of a
// field must not produce findings.
func EvaluateRule(res asset.Resource, rule rules.Rule) (bool, error) {
	raw, ok := res.Field(rule.Field)
	if !ok || raw == nil {
		return false, nil
	}
	return Evaluate(ValueOf(raw), rule.Op, rule.Value)
}

// Evaluate is the pure operator evaluator: (field value, operator, rule
// value) -> match. Incomparable operands skip the rule for that resource,
// returning (false, nil) rather than an error.
func Evaluate(field Value, op rules.Operator, want rules.Value) (bool, error) {
	switch op {
	case rules.OpEq:
		eq, _ := valuesEqual(field, want)
		return eq, nil
	case rules.OpNeq:
		eq, comparable := valuesEqual(field, want)
		return comparable && !eq, nil
	case rules.OpGt, rules.OpLt, rules.OpGte, rules.OpLte:
		return evalOrdered(field, op, want), nil
	case rules.OpContains:
		found, comparable := textContains(field, want)
		return comparable && found, nil
	case rules.OpNotContains:
		found, comparable := textContains(field, want)
		return comparable && !found, nil
	case rules.OpIn:
		member, comparable := listMember(field, want)
		return comparable && member, nil
	case rules.OpNotIn:
		member, comparable := listMember(field, want)
		return comparable && !member, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

// valuesEqual compares in a fixed ladder: boolean if both sides coerce to
// booleans, then numeric if both coerce to numbers, then canonical text.
// This is what makes {public_ip: true} equal to the rule value "true".
func valuesEqual(field Value, want rules.Value) (equal bool, comparable bool) {
	wt, ok := want.Text()
	if !ok {
		return false, false
	}
	wantValue := ValueOf(wt)

	if fb, ok := field.Bool(); ok {
		if wb, ok := wantValue.Bool(); ok {
			return fb == wb, true
		}
	}
	if fn, ok := field.Number(); ok {
		if wn, ok := wantValue.Number(); ok {
			return fn == wn, true
		}
	}
	ft, ok := field.Text()
	if !ok {
		return false, false
	}
	return ft == wt, true
}

// evalOrdered handles gt/lt/gte/lte. Both sides must coerce to numbers;
// otherwise the pair is Incomparable and the rule is skipped for this
// resource.
func evalOrdered(field Value, op rules.Operator, want rules.Value) bool {
	wt, ok := want.Text()
	if !ok {
		return false
	}
	fn, ok := field.Number()
	if !ok {
		return false
	}
	wn, ok := ValueOf(wt).Number()
	if !ok {
		return false
	}

	switch op {
	case rules.OpGt:
		return fn > wn
	case rules.OpLt:
		return fn < wn
	case rules.OpGte:
		return fn >= wn
	case rules.OpLte:
		return fn <= wn
	}
	return false
}

// textContains substring-tests the field's text form against the rule
// value's text form, case-insensitively.
func textContains(field Value, want rules.Value) (found bool, comparable bool) {
	wt, ok := want.Text()
	if !ok {
		return false, false
	}
	ft, ok := field.Text()
	if !ok {
		return false, false
	}
	return strings.Contains(strings.ToLower(ft), strings.ToLower(wt)), true
}

// listMember tests the field's text form for membership in the rule's list.
func listMember(field Value, want rules.Value) (member bool, comparable bool) {
	items, ok := want.Items()
	if !ok {
		return false, false
	}
	ft, ok := field.Text()
	if !ok {
		return false, false
	}
	for _, item := range items {
		if ft == item {
			return true, true
		}
	}
	return false, true
}

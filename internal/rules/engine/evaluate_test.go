package engine

import (
	"testing"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/rules"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field any
		op    rules.Operator
		want  rules.Value
		match bool
	}{
		{name: "eq bool against string", field: true, op: rules.OpEq, want: rules.Scalar("true"), match: true},
		{name: "eq bool false", field: false, op: rules.OpEq, want: rules.Scalar("false"), match: true},
		{name: "eq numeric forms", field: float64(80), op: rules.OpEq, want: rules.Scalar("80.0"), match: true},
		{name: "eq text", field: "us-east-1", op: rules.OpEq, want: rules.Scalar("us-east-1"), match: true},
		{name: "eq text mismatch", field: "us-east-1", op: rules.OpEq, want: rules.Scalar("eu-west-1"), match: false},
		{name: "neq match", field: "running", op: rules.OpNeq, want: rules.Scalar("stopped"), match: true},
		{name: "neq equal values", field: "running", op: rules.OpNeq, want: rules.Scalar("running"), match: false},
		{name: "neq incomparable field", field: []any{"x"}, op: rules.OpNeq, want: rules.Scalar("running"), match: false},
		{name: "gt match", field: float64(9000), op: rules.OpGt, want: rules.Scalar("8000"), match: true},
		{name: "gt no match", field: float64(80), op: rules.OpGt, want: rules.Scalar("8000"), match: false},
		{name: "gt numeric string field", field: "9000", op: rules.OpGt, want: rules.Scalar("8000"), match: true},
		{name: "gt incomparable field", field: "not-a-number", op: rules.OpGt, want: rules.Scalar("8000"), match: false},
		{name: "lt match", field: 443, op: rules.OpLt, want: rules.Scalar("1024"), match: true},
		{name: "gte boundary", field: float64(8000), op: rules.OpGte, want: rules.Scalar("8000"), match: true},
		{name: "lte boundary", field: float64(8000), op: rules.OpLte, want: rules.Scalar("8000"), match: true},
		{name: "lte above", field: float64(8001), op: rules.OpLte, want: rules.Scalar("8000"), match: false},
		{name: "contains", field: "arn:aws:s3:::public-data", op: rules.OpContains, want: rules.Scalar("public"), match: true},
		{name: "contains case insensitive", field: "PUBLIC-data", op: rules.OpContains, want: rules.Scalar("public"), match: true},
		{name: "contains no match", field: "internal-data", op: rules.OpContains, want: rules.Scalar("public"), match: false},
		{name: "not_contains match", field: "internal-data", op: rules.OpNotContains, want: rules.Scalar("public"), match: true},
		{name: "not_contains found", field: "public-data", op: rules.OpNotContains, want: rules.Scalar("public"), match: false},
		{name: "not_contains incomparable", field: []any{"public"}, op: rules.OpNotContains, want: rules.Scalar("public"), match: false},
		{name: "in member", field: "us-east-1", op: rules.OpIn, want: rules.List("us-east-1", "eu-west-1"), match: true},
		{name: "in non-member", field: "ap-south-1", op: rules.OpIn, want: rules.List("us-east-1", "eu-west-1"), match: false},
		{name: "in numeric member", field: float64(22), op: rules.OpIn, want: rules.List("22", "3389"), match: true},
		{name: "not_in match", field: "ap-south-1", op: rules.OpNotIn, want: rules.List("us-east-1", "eu-west-1"), match: true},
		{name: "not_in member", field: "us-east-1", op: rules.OpNotIn, want: rules.List("us-east-1", "eu-west-1"), match: false},
		{name: "not_in incomparable field", field: map[string]any{}, op: rules.OpNotIn, want: rules.List("a"), match: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Evaluate(ValueOf(tc.field), tc.op, tc.want)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if got != tc.match {
				t.Fatalf("Evaluate() = %v, want %v", got, tc.match)
			}
		})
	}
}

func TestEvaluateUnknownOperator(t *testing.T) {
	t.Parallel()

	if _, err := Evaluate(ValueOf("x"), rules.Operator("regex"), rules.Scalar("y")); err == nil {
		t.Fatal("Evaluate() error = nil, want unsupported operator error")
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	t.Parallel()

	first, err := Evaluate(ValueOf(float64(80)), rules.OpGt, rules.Scalar("8000"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	for range 100 {
		got, err := Evaluate(ValueOf(float64(80)), rules.OpGt, rules.Scalar("8000"))
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if got != first {
			t.Fatalf("Evaluate() = %v, want stable %v", got, first)
		}
	}
}

func TestEvaluateRuleMissingField(t *testing.T) {
	t.Parallel()

	res := asset.Resource{Name: "bucket-1", ResourceType: "s3"}
	ops := []rules.Operator{
		rules.OpEq, rules.OpNeq, rules.OpGt, rules.OpLt, rules.OpGte, rules.OpLte,
		rules.OpContains, rules.OpNotContains,
	}
	for _, op := range ops {
		got, err := EvaluateRule(res, rules.Rule{Name: "r", Field: "public_access", Op: op, Value: rules.Scalar("true")})
		if err != nil {
			t.Fatalf("EvaluateRule(%s) error = %v", op, err)
		}
		if got {
			t.Fatalf("EvaluateRule(%s) = true for missing field, want false", op)
		}
	}
	for _, op := range []rules.Operator{rules.OpIn, rules.OpNotIn} {
		got, err := EvaluateRule(res, rules.Rule{Name: "r", Field: "public_access", Op: op, Value: rules.List("true")})
		if err != nil {
			t.Fatalf("EvaluateRule(%s) error = %v", op, err)
		}
		if got {
			t.Fatalf("EvaluateRule(%s) = true for missing field, want false", op)
		}
	}
}

func TestEvaluateRuleNilField(t *testing.T) {
	t.Parallel()

	res := asset.Resource{Name: "srv-1", Fields: map[string]any{"owner": nil}}
	got, err := EvaluateRule(res, rules.Rule{Name: "r", Field: "owner", Op: rules.OpEq, Value: rules.Scalar("")})
	if err != nil {
		t.Fatalf("EvaluateRule() error = %v", err)
	}
	if got {
		t.Fatal("EvaluateRule() = true for nil field, want false")
	}
}

func TestEvaluateRuleDottedField(t *testing.T) {
	t.Parallel()

	res := asset.Resource{
		Name:         "web-1",
		ResourceType: "ec2",
		Fields: map[string]any{
			"tags": map[string]any{"env": "prod"},
		},
	}
	got, err := EvaluateRule(res, rules.Rule{Name: "r", Field: "tags.env", Op: rules.OpEq, Value: rules.Scalar("prod")})
	if err != nil {
		t.Fatalf("EvaluateRule() error = %v", err)
	}
	if !got {
		t.Fatal("EvaluateRule() = false for tags.env eq prod, want true")
	}
}

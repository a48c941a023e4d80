package rules

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Rule{
		Name:     "open to the world",
		Field:    "public_ip",
		Op:       OpEq,
		Value:    Scalar("true"),
		Severity: SeverityHigh,
	}

	tests := []struct {
		name    string
		mutate  func(r *Rule)
		wantMsg string
	}{
		{name: "valid rule", mutate: func(r *Rule) {}},
		{name: "missing name", mutate: func(r *Rule) { r.Name = "  " }, wantMsg: "name is required"},
		{name: "missing field", mutate: func(r *Rule) { r.Field = "" }, wantMsg: "field is required"},
		{name: "unknown operator", mutate: func(r *Rule) { r.Op = "regex" }, wantMsg: "unknown operator"},
		{name: "unknown severity", mutate: func(r *Rule) { r.Severity = "URGENT" }, wantMsg: "unknown severity"},
		{name: "in with scalar", mutate: func(r *Rule) { r.Op = OpIn }, wantMsg: "requires a list"},
		{name: "not_in with scalar", mutate: func(r *Rule) { r.Op = OpNotIn }, wantMsg: "requires a list"},
		{name: "eq with list", mutate: func(r *Rule) { r.Value = List("a") }, wantMsg: "requires a scalar"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := valid
			tc.mutate(&r)
			err := Validate(r)
			if tc.wantMsg == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("Validate() error = %q, want it to contain %q", err, tc.wantMsg)
			}
		})
	}
}

func TestValidateAll(t *testing.T) {
	t.Parallel()

	batch := []Rule{
		{Name: "ok", Field: "region", Op: OpIn, Value: List("us-east-1"), Severity: SeverityLow},
		{Name: "bad op", Field: "region", Op: "matches", Value: Scalar("x"), Severity: SeverityLow},
		{Name: "", Field: "region", Op: OpEq, Value: Scalar("x"), Severity: SeverityLow},
	}
	errs := ValidateAll(batch)
	if len(errs) != 2 {
		t.Fatalf("ValidateAll() returned %d errors, want 2", len(errs))
	}
}

package rules

import (
	"fmt"
	"strings"
)

// ValidationError rejects a rule at ingestion time. Invalid rules never reach
// the evaluator.
type ValidationError struct {
	Rule string
	Msg  string
}

func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Rule) == "" {
		return fmt.Sprintf("invalid rule: %s", e.Msg)
	}
	return fmt.Sprintf("invalid rule %q: %s", e.Rule, e.Msg)
}

// Validate checks a rule at upload time: required keys, a known operator, a
// known severity, and the list/scalar shape the operator requires.
func Validate(r Rule) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return ValidationError{Msg: "name is required"}
	}
	if strings.TrimSpace(r.Field) == "" {
		return ValidationError{Rule: name, Msg: "field is required"}
	}
	if !r.Op.Valid() {
		return ValidationError{Rule: name, Msg: fmt.Sprintf("unknown operator %q", r.Op)}
	}
	if !r.Severity.Valid() {
		return ValidationError{Rule: name, Msg: fmt.Sprintf("unknown severity %q", r.Severity)}
	}

	switch r.Op {
	case OpIn, OpNotIn:
		if !r.Value.IsList() {
			return ValidationError{Rule: name, Msg: fmt.Sprintf("operator %q requires a list value", r.Op)}
		}
	default:
		if r.Value.IsList() {
			return ValidationError{Rule: name, Msg: fmt.Sprintf("operator %q requires a scalar value", r.Op)}
		}
	}
	return nil
}

// ValidateAll validates an uploaded batch, reporting every invalid rule.
func ValidateAll(batch []Rule) []error {
	var errs []error
	for _, r := range batch {
		if err := Validate(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

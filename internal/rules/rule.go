package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operator is one of the fixed comparison operators a rule may use.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpGt          Operator = "gt"
	OpLt          Operator = "lt"
	OpGte         Operator = "gte"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

// Valid reports whether op is part of the supported operator set.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpContains, OpNotContains, OpIn, OpNotIn:
		return true
	}
	return false
}

// Severity is the risk level a rule assigns to its findings.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// Severities lists all levels in rank order, most severe first.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

// Rank orders severities for display, most severe first. Unknown severities
// sort last.
func (s Severity) Rank() int {
	switch Severity(strings.ToUpper(strings.TrimSpace(string(s)))) {
	case SeverityCritical:
		return 1
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 4
	case SeverityInfo:
		return 5
	default:
		return 99
	}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Value is a rule's expected value: a single scalar rendered to its text
// form, or a list of strings for the membership operators.
type Value struct {
	text   string
	list   []string
	isList bool
}

// Scalar builds a single-value Value.
func Scalar(s string) Value { return Value{text: s} }

// List builds a list Value.
func List(items ...string) Value { return Value{list: items, isList: true} }

// IsList reports whether the value is a string list.
func (v Value) IsList() bool { return v.isList }

// Text returns the scalar text form. For lists it returns ok=false.
func (v Value) Text() (string, bool) {
	if v.isList {
		return "", false
	}
	return v.text, true
}

// Items returns the list form. For scalars it returns ok=false.
func (v Value) Items() ([]string, bool) {
	if !v.isList {
		return nil, false
	}
	return v.list, true
}

// UnmarshalJSON accepts a string, bool, or number scalar (rendered to its
// canonical text form), or an array of such scalars.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch val := raw.(type) {
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := scalarText(item)
			if !ok {
				return fmt.Errorf("rule value list may only contain scalars, got %T", item)
			}
			items = append(items, s)
		}
		*v = List(items...)
		return nil
	default:
		s, ok := scalarText(raw)
		if !ok {
			return fmt.Errorf("rule value must be a scalar or list of scalars, got %T", raw)
		}
		*v = Scalar(s)
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		items := v.list
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	}
	return json.Marshal(v.text)
}

// String renders the value the way it appears on a finding's expected_value.
func (v Value) String() string {
	if v.isList {
		return "[" + strings.Join(v.list, ", ") + "]"
	}
	return v.text
}

func scalarText(raw any) (string, bool) {
	switch val := raw.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Rule is one declarative risk check over a single resource field. A match
// means the risky condition was observed and a finding is emitted.
type Rule struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Field        string   `json:"field"`
	Op           Operator `json:"op"`
	Value        Value    `json:"value"`
	Severity     Severity `json:"severity"`
	ResourceType string   `json:"resource_type,omitempty"`
}

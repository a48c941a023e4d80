package engine

import (
	"strconv"
	"strings"
)

// Value wraps one resource field value as decoded from a schema-less
// document. Comparisons never mutate the stored data; each operator asks for
// the representation it needs and treats a failed coercion as Incomparable,
// which is a typed outcome rather than an error.
type Value struct {
	raw any
}

// ValueOf wraps a raw document value.
func ValueOf(raw any) Value { return Value{raw: raw} }

// Bool coerces to a boolean: native bools and the strings "true"/"false"
// (case-insensitive) convert, everything else is Incomparable.
func (v Value) Bool() (bool, bool) {
	switch val := v.raw.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// Number coerces to a float64: native numbers pass through, strings go
// through standard float parsing.
func (v Value) Number() (float64, bool) {
	switch val := v.raw.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Text renders a scalar in its canonical string form: "true"/"false" for
// bools, decimal for numbers. Lists and nested maps are Incomparable.
func (v Value) Text() (string, bool) {
	return scalarText(v.raw)
}

// TextList renders a native list of scalars element-wise via Text.
func (v Value) TextList() ([]string, bool) {
	switch val := v.raw.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := scalarText(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func scalarText(raw any) (string, bool) {
	switch val := raw.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	}
	return "", false
}

package metadata

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON renders Value as a native JSON number or string so the
// lock file's metadata map reads as plain `{"key": 87}` / `{"key": "x"}`,
// not a wrapped object (spec.md §6). A Float with no fractional part is
// written with a trailing ".0" so it reads back as a Float.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		out, err := json.Marshal(v.Flt)
		if err != nil {
			return nil, err
		}
		if !looksFloat(out) {
			out = append(out, ".0"...)
		}
		return out, nil
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON recovers the sticky type tag from the JSON literal's own
// shape: a JSON number round-trips to Int when it has no fractional part
// or exponent, else Float; a JSON string stays a String.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = Value{Kind: KindString, Str: t}
	case float64:
		if t == float64(int64(t)) && !looksFloat(data) {
			*v = Value{Kind: KindInt, Int: int64(t)}
		} else {
			*v = Value{Kind: KindFloat, Flt: t}
		}
	default:
		return fmt.Errorf("unsupported metadata value: %s", data)
	}
	return nil
}

// looksFloat reports whether the raw JSON literal contains a decimal
// point or exponent, distinguishing `87` from `87.0`.
func looksFloat(data []byte) bool {
	for _, b := range data {
		if b == '.' || b == 'e' || b == 'E' {
			return true
		}
	}
	return false
}

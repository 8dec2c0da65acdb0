// Package metadata implements the pure metadata extraction and delta
// computation of spec.md §4.4: applying user regex patterns to a check's
// merged stdout+stderr and tracking typed facts across runs.
package metadata

import (
	"regexp"
	"strconv"

	"github.com/verify-ci/verify/internal/config"
)

// Kind tags which arm of the Integer|Float|String union a Value holds.
// The tag is decided once at parse time and stays sticky through the
// cache (spec.md §4.4, §9) so delta computation never silently coerces
// across runs.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Value is a typed fact extracted from a check's output.
type Value struct {
	Kind Kind
	Int  int64
	Flt  float64
	Str  string
}

// String returns the canonical string form of v. The lock file stores
// values through MarshalJSON, not through this form.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Flt, 'g', -1, 64)
	default:
		return v.Str
	}
}

// parseValue classifies a raw extracted string as Integer, else Float,
// else String (spec.md §4.4).
func parseValue(raw string) Value {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Value{Kind: KindInt, Int: i}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Value{Kind: KindFloat, Flt: f}
	}
	return Value{Kind: KindString, Str: raw}
}

// Extract applies every pattern to output and returns the resulting
// key->Value map. Patterns whose regex has no match in output are
// omitted entirely (there is no fact to record).
func Extract(output string, patterns map[string]config.MetadataPattern) map[string]Value {
	if len(patterns) == 0 {
		return nil
	}

	result := make(map[string]Value, len(patterns))
	for key, pattern := range patterns {
		re, err := regexp.Compile(pattern.Regex)
		if err != nil {
			continue
		}

		locs := re.FindAllStringSubmatchIndex(output, -1)
		if len(locs) == 0 {
			continue
		}
		last := locs[len(locs)-1]

		var raw string
		if pattern.Template == "" {
			// Simple pattern: capture group 1 verbatim.
			if len(last) < 4 {
				continue // no capture group 1 in this match
			}
			raw = output[last[2]:last[3]]
		} else {
			raw = string(re.ExpandString(nil, pattern.Template, output, last))
		}

		result[key] = parseValue(raw)
	}
	return result
}

// Delta computes current-previous for same-typed numeric pairs; mixed
// int/float coerces to float; anything else (string, or either side
// absent) has no well-defined delta.
func Delta(previous, current Value) (float64, bool) {
	switch {
	case previous.Kind == KindInt && current.Kind == KindInt:
		return float64(current.Int - previous.Int), true
	case previous.Kind == KindFloat && current.Kind == KindFloat:
		return current.Flt - previous.Flt, true
	case previous.Kind == KindInt && current.Kind == KindFloat:
		return current.Flt - float64(previous.Int), true
	case previous.Kind == KindFloat && current.Kind == KindInt:
		return float64(current.Int) - previous.Flt, true
	default:
		return 0, false
	}
}

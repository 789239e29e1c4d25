package catalog

import (
	"encoding/json"
	"math"
	"reflect"
	"slices"
)

// toInt converts any integral numeric value to int64. Floats are accepted
// only when they carry no fractional part, which is how JSON numbers arrive.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		return toInt(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return toFloat(float64(n))
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toFloat(f)
	}
	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

// toStrings accepts []string or a JSON array of strings and returns a new slice.
func toStrings(v any) ([]string, bool) {
	switch items := v.(type) {
	case []string:
		return slices.Clone(items), true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// CanonicalJSON converts a JSON-shaped value to the form encoding/json
// produces when decoding into an interface: numbers become float64 and
// string slices become []any. Other typed values (map[string]string,
// []map[string]any, structs) go through a JSON round trip. The result shares
// nothing with v. It reports false for values that have no JSON
// representation, including NaN and infinities.
func CanonicalJSON(v any) (any, bool) {
	switch x := v.(type) {
	case nil, bool, string:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			c, ok := CanonicalJSON(item)
			if !ok {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			c, ok := CanonicalJSON(item)
			if !ok {
				return nil, false
			}
			out[k] = c
		}
		return out, true
	}
	if f, ok := toFloat(v); ok {
		return f, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	return out, true
}

// CanonicalConfig applies [CanonicalJSON] to every value of an opaque map.
func CanonicalConfig(cfg map[string]any) (map[string]any, bool) {
	if cfg == nil {
		return nil, true
	}
	c, ok := CanonicalJSON(cfg)
	if !ok {
		return nil, false
	}
	return c.(map[string]any), true
}

// CloneValue returns a deep copy of a JSON-shaped value. Maps and slices
// are copied recursively; scalars are returned as is.
func CloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if x == nil {
			return x
		}
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = CloneValue(item)
		}
		return out
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(x)
	}
	return v
}

// CloneConfig deep-copies a node configuration.
func CloneConfig(cfg map[string]any) map[string]any {
	if cfg == nil {
		return nil
	}
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = CloneValue(v)
	}
	return out
}

// IsEmpty reports whether a configuration value counts as missing:
// nil, the empty string, or an empty list.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}

// EqualValues compares two canonical configuration values.
func EqualValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

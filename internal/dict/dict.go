// Package dict reads typed values out of loosely typed dictionaries such as
// decoded JSON objects and status dictionaries.
package dict

import (
	"errors"
	"fmt"
	"sort"
)

var ErrWrongType = errors.New("dictionary value has wrong type")

// Dict is a parameter or status dictionary keyed by property name.
type Dict = map[string]any

func AsString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	default:
		return "", false
	}
}

func AsInt(v any) (int, bool) {
	n, ok := AsInt64(v)
	return int(n), ok
}

func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float64:
		return int64(x), true
	case float32:
		return int64(x), true
	default:
		return 0, false
	}
}

func AsFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

func AsBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	default:
		return false, false
	}
}

func AsStrings(v any) ([]string, bool) {
	switch xs := v.(type) {
	case []string:
		return append([]string(nil), xs...), true
	case []any:
		out := make([]string, 0, len(xs))
		for _, item := range xs {
			s, ok := AsString(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func AsFloat64s(v any) ([]float64, bool) {
	switch xs := v.(type) {
	case []float64:
		return append([]float64(nil), xs...), true
	case []any:
		out := make([]float64, 0, len(xs))
		for _, item := range xs {
			f, ok := AsFloat64(item)
			if !ok {
				return nil, false
			}
			out = append(out, f)
		}
		return out, true
	default:
		return nil, false
	}
}

// AsDict accepts a nested object.
func AsDict(v any) (Dict, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case map[string]float64:
		out := make(Dict, len(x))
		for k, f := range x {
			out[k] = f
		}
		return out, true
	default:
		return nil, false
	}
}

// UpdateFloat64 overwrites *dst when key is present. A present key holding a
// non-numeric value is an error and leaves *dst untouched.
func UpdateFloat64(d Dict, key string, dst *float64) (bool, error) {
	raw, ok := d[key]
	if !ok {
		return false, nil
	}
	f, ok := AsFloat64(raw)
	if !ok {
		return false, fmt.Errorf("%w: %s=%v (%T)", ErrWrongType, key, raw, raw)
	}
	*dst = f
	return true, nil
}

// Keys returns the dictionary keys sorted.
func Keys(d Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package appdef

import (
	"fmt"
	"sort"
)

// Parsed config documents are trees of map[string]any, []any and scalars,
// as produced by the YAML and JSON decoders. Comparison must be structural:
// key order and source formatting never count as drift, and numeric values
// compare by value regardless of which concrete type the decoder picked.

// Normalize rewrites a decoded document into the canonical tree form:
// map[string]any for mappings (including map[any]any from YAML decoders),
// []any for sequences, scalars unchanged.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k] = Normalize(v)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprintf("%v", k)] = Normalize(v)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, v := range val {
			s[i] = Normalize(v)
		}
		return s
	default:
		return val
	}
}

// NormalizeMap normalizes a document known to be a mapping at the top level.
func NormalizeMap(m map[string]any) map[string]any {
	return Normalize(m).(map[string]any)
}

// Equal reports structural equality of two normalized values. Mappings
// compare key-by-key, sequences element-by-element in order.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, ok := bv[k]
			if !ok || !Equal(v, ov) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i, v := range av {
			if !Equal(v, bv[i]) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(a, b)
	}
}

// DiffPaths compares desired against actual restricted to the keys the
// desired side specifies, and returns the dotted paths of differing fields
// in sorted order. Fields the desired side does not mention are the
// platform's to default and never count as drift.
func DiffPaths(desired, actual map[string]any) []string {
	var paths []string
	diffWalk("", desired, actual, &paths)
	sort.Strings(paths)
	return paths
}

func diffWalk(prefix string, desired, actual map[string]any, paths *[]string) {
	for k, want := range desired {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		have, ok := actual[k]
		if !ok {
			*paths = append(*paths, path)
			continue
		}
		wm, wantIsMap := want.(map[string]any)
		hm, haveIsMap := have.(map[string]any)
		if wantIsMap && haveIsMap {
			diffWalk(path, wm, hm, paths)
			continue
		}
		if !Equal(want, have) {
			*paths = append(*paths, path)
		}
	}
}

// scalarEqual compares leaf values. Decoders disagree on numeric types
// (YAML yields int/uint64, JSON yields float64), so numbers compare by
// value, everything else by typed equality.
func scalarEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Package maputil provides helpers for the untyped JSON-like trees
// (map[string]any / []any / primitives) that flow between the API wire
// format, the case converter, and the fixture factories.
package maputil

import "sort"

// IsObject reports whether v is a plain mapping. Sequences and nil are not.
func IsObject(v any) bool {
	m, ok := v.(map[string]any)

	return ok && m != nil
}

// DeepCopy returns a structurally independent copy of v. Mappings and
// sequences are copied recursively; every other value is returned as is.
func DeepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyMap(val)
	case []any:
		return DeepCopySlice(val)
	case []map[string]any:
		if val == nil {
			return val
		}

		out := make([]map[string]any, len(val))
		for i, m := range val {
			out[i] = DeepCopyMap(m)
		}

		return out
	default:
		return v
	}
}

// DeepCopyMap performs a deep copy of a map[string]any.
func DeepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = DeepCopy(v)
	}

	return dst
}

// DeepCopySlice performs a deep copy of a []any.
func DeepCopySlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, v := range src {
		dst[i] = DeepCopy(v)
	}

	return dst
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

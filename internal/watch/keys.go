package watch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/loop/internal/maputil"
)

// Kinds of key changes.
const (
	KeyAdded       = "added"
	KeyRemoved     = "removed"
	KeyTypeChanged = "type-changed"
)

// KeyChange is one difference between the key paths of two runs.
type KeyChange struct {
	Kind   string
	Path   string
	Detail string
}

// KeyPaths flattens a JSON-like tree into dotted key paths mapped to the
// kind of value found there ("object", "array", "string", "number", "bool",
// "null"). Sequence elements share the path segment "[]".
func KeyPaths(v any) map[string]string {
	out := map[string]string{}
	walk("", v, out)

	return out
}

func walk(prefix string, v any, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		if prefix != "" {
			out[prefix] = "object"
		}

		for _, k := range maputil.SortedKeys(val) {
			walk(join(prefix, k), val[k], out)
		}
	case []any:
		if prefix != "" {
			out[prefix] = "array"
		}

		for _, item := range val {
			walk(join(prefix, "[]"), item, out)
		}
	case []map[string]any:
		if prefix != "" {
			out[prefix] = "array"
		}

		for _, item := range val {
			walk(join(prefix, "[]"), item, out)
		}
	default:
		if prefix != "" {
			out[prefix] = kindOf(val)
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int32, int64, uint, uint32, uint64, float32, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// KeyDiff compares two KeyPaths results, ordered by path.
func KeyDiff(prev, curr map[string]string) []KeyChange {
	var changes []KeyChange

	for path, kind := range prev {
		if _, ok := curr[path]; !ok {
			changes = append(changes, KeyChange{Kind: KeyRemoved, Path: path, Detail: kind})
		}
	}

	for path, kind := range curr {
		old, existed := prev[path]

		switch {
		case !existed:
			changes = append(changes, KeyChange{Kind: KeyAdded, Path: path, Detail: kind})
		case old != kind:
			changes = append(changes, KeyChange{Kind: KeyTypeChanged, Path: path, Detail: old + " -> " + kind})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Path != changes[j].Path {
			return changes[i].Path < changes[j].Path
		}

		return changes[i].Kind < changes[j].Kind
	})

	return changes
}

// KeyDiffSummary is a one-line summary such as "+2 added, -1 removed".
func KeyDiffSummary(changes []KeyChange) string {
	var added, removed, changed int

	for _, c := range changes {
		switch c.Kind {
		case KeyAdded:
			added++
		case KeyRemoved:
			removed++
		case KeyTypeChanged:
			changed++
		}
	}

	parts := make([]string, 0, 3)

	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d added", added))
	}

	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d removed", removed))
	}

	if changed > 0 {
		parts = append(parts, fmt.Sprintf("~%d type changed", changed))
	}

	if len(parts) == 0 {
		return "no key changes"
	}

	return strings.Join(parts, ", ")
}

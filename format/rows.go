package format

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// rows flattens a response into the list-of-objects model the table and
// CSV renderers share. A single object becomes one row; an object with
// a "data" list unwraps to that list.
func rows(data any) []map[string]any {
	switch t := data.(type) {
	case []map[string]any:
		return t
	case []any:
		return objectItems(t)
	case map[string]any:
		if items, ok := t["data"].([]any); ok {
			return objectItems(items)
		}
		return []map[string]any{t}
	}
	return nil
}

func objectItems(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// columns returns the union of row keys in first-seen order, so column
// order follows the server's field order as closely as map iteration
// allows.
func columns(items []map[string]any) []string {
	var keys []string
	seen := map[string]bool{}
	for _, item := range items {
		for key := range item {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// header turns a snake_case field name into a Title Case column label.
func header(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// cell renders one value for table, CSV, and tree output.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "✓"
		}
		return "✗"
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		out, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(out)
	default:
		return fmt.Sprintf("%v", t)
	}
}

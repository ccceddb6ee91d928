package api

// ExtractList normalizes the shapes list endpoints answer with. Some
// return a bare JSON array, others wrap it in an object under "data" or
// under a resource-specific key. Anything unrecognized degrades to an
// empty list instead of an error.
func ExtractList(v any, keys ...string) []map[string]any {
	switch t := v.(type) {
	case []any:
		return toMaps(t)
	case map[string]any:
		for _, key := range append([]string{"data"}, keys...) {
			if items, ok := t[key].([]any); ok {
				return toMaps(items)
			}
		}
	}
	return []map[string]any{}
}

func toMaps(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

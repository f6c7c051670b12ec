// Package parser turns raw provider payloads into canonical
// domain.Transaction values, and holds the helpers shared by every
// provider sub-package: nested-path lookup, keyword extraction and masked
// card-number matching.
package parser

import (
	"strconv"
	"strings"
)

// Record is a raw, provider-shaped JSON object as decoded by
// encoding/json (map[string]any, []any, string, float64, bool, nil).
type Record = map[string]any

// GetNestedItem resolves a dot-separated path against a decoded JSON
// value, with "[n]" segments indexing into arrays. It returns nil rather
// than erroring when any segment along the path is missing or of the
// wrong shape, mirroring common/utils.get_nested_item's liberal default
// handling of provider payloads that don't always carry every field.
func GetNestedItem(value any, path string) any {
	current := value
	for _, segment := range strings.Split(path, ".") {
		if current == nil {
			return nil
		}
		if idx, ok := arrayIndex(segment); ok {
			list, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(list) {
				return nil
			}
			current = list[idx]
			continue
		}
		obj, ok := current.(Record)
		if !ok {
			return nil
		}
		current, ok = obj[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// GetNestedString is GetNestedItem narrowed to the string case, the shape
// almost every provider detail extraction needs.
func GetNestedString(value any, path string) (string, bool) {
	v := GetNestedItem(value, path)
	s, ok := v.(string)
	return s, ok
}

func arrayIndex(segment string) (int, bool) {
	if !strings.HasPrefix(segment, "[") || !strings.HasSuffix(segment, "]") {
		return 0, false
	}
	n, err := strconv.Atoi(segment[1 : len(segment)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

package report

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// dig walks nested objects by key. ok is false when a key is missing or an
// intermediate value is not an object.
func dig(v any, keys ...string) (any, bool) {
	cur := v
	for _, k := range keys {
		obj, isObj := cur.(map[string]any)
		if !isObj {
			return nil, false
		}
		next, found := obj[k]
		if !found {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// asObject returns v as an object, or nil.
func asObject(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

// asArray returns v as an array, or nil.
func asArray(v any) []any {
	arr, _ := v.([]any)
	return arr
}

// truthy mirrors JSON-value truthiness: null, false, 0, "" and empty
// containers are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	default:
		return true
	}
}

// firstTruthy returns the first truthy value, or nil.
func firstTruthy(values ...any) any {
	for _, v := range values {
		if truthy(v) {
			return v
		}
	}
	return nil
}

// strictInt accepts only integral JSON numbers.
func strictInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, false
		}
		return int64ToInt(n)
	case float64:
		// Only reachable for documents not decoded with UseNumber.
		if x != math.Trunc(x) {
			return 0, false
		}
		return floatToInt(x)
	default:
		return 0, false
	}
}

// looseInt coerces numbers (truncating fractions) and integer strings.
func looseInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int64ToInt(n)
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// floatToInt truncates f; NaN and values outside the int range are rejected.
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

func int64ToInt(n int64) (int, bool) {
	if n > math.MaxInt || n < math.MinInt {
		return 0, false
	}
	return int(n), true
}

// countAt reads a nested count, degrading to zero.
func countAt(v any, keys ...string) int {
	raw, ok := dig(v, keys...)
	if !ok {
		return 0
	}
	n, ok := looseInt(raw)
	if !ok {
		return 0
	}
	return n
}

// labelOf returns the value as a display label, or fallback when it is empty
// or not a scalar.
func labelOf(v any, fallback string) string {
	switch x := v.(type) {
	case string:
		if x != "" {
			return x
		}
	case json.Number:
		return x.String()
	}
	return fallback
}

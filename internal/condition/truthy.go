package condition

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Truthy reports the boolean interpretation of v under Python-style bool()
// coercion. Template conditions are authored against Python-Jinja2
// conventions, so this deliberately diverges from Go intuition: the strings
// "0", "false", "no" and "off" (any case) are falsy, as are blank strings,
// empty collections, zero numbers, NaN, and nil.
func Truthy(v any) bool {
	ok, _ := truthy(v)
	return ok
}

func truthy(v any) (bool, string) {
	switch x := v.(type) {
	case nil:
		return false, "null value"
	case bool:
		if x {
			return true, "true"
		}
		return false, "false"
	case string:
		trimmed := strings.TrimSpace(x)
		if trimmed == "" {
			return false, "empty string"
		}
		switch strings.ToLower(trimmed) {
		case "0", "false", "no", "off":
			return false, "falsy string " + strconv.Quote(trimmed)
		}
		return true, "non-empty string"
	case int:
		return truthyInt(int64(x))
	case int8:
		return truthyInt(int64(x))
	case int16:
		return truthyInt(int64(x))
	case int32:
		return truthyInt(int64(x))
	case int64:
		return truthyInt(x)
	case uint:
		return truthyInt(int64(x))
	case uint8:
		return truthyInt(int64(x))
	case uint16:
		return truthyInt(int64(x))
	case uint32:
		return truthyInt(int64(x))
	case uint64:
		return truthyInt(int64(x))
	case float32:
		return truthyFloat(float64(x))
	case float64:
		return truthyFloat(x)
	case []any:
		if len(x) == 0 {
			return false, "empty list"
		}
		return true, "non-empty list"
	case map[string]any:
		if len(x) == 0 {
			return false, "empty mapping"
		}
		return true, "non-empty mapping"
	}

	// Uncommon kinds: fall back to reflection for other slice/map/pointer
	// shapes, defaulting to true for everything else.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if rv.Len() == 0 {
			return false, "empty collection"
		}
		return true, "non-empty collection"
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return false, "null value"
		}
		return truthy(rv.Elem().Interface())
	}
	return true, "non-null value"
}

func truthyInt(n int64) (bool, string) {
	if n == 0 {
		return false, "zero"
	}
	return true, "non-zero number"
}

func truthyFloat(f float64) (bool, string) {
	if math.IsNaN(f) {
		return false, "NaN"
	}
	if f == 0 {
		return false, "zero"
	}
	return true, "non-zero number"
}

package agtype

import (
	"fmt"
	"strconv"
)

// ToInt64 converts a decoded value to int64. Unsupported values yield 0.
func ToInt64(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	case Numeric:
		i, err := strconv.ParseInt(string(val), 10, 64)
		if err != nil {
			f, _ := val.Float64()
			return int64(f)
		}
		return i
	case string:
		i, _ := strconv.ParseInt(val, 10, 64)
		return i
	default:
		return 0
	}
}

// ToFloat64 converts a decoded value to float64. Unsupported values yield 0.
func ToFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case Numeric:
		f, _ := val.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	default:
		return 0
	}
}

// ToString converts a decoded value to string. nil yields "".
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

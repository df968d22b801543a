package mapsafe

import (
	"fmt"
	"strconv"
)

// Get retrieves a typed value from a map[string]any.
// If the key is missing or the type cannot be converted, it returns the default value.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	v, err := Lookup[T](m, key)
	if err != nil {
		return defaultValue
	}
	return v
}

// Lookup retrieves a typed value from a map[string]any, converting between the
// numeric and string shapes that YAML, JSON and command-line sources produce.
// It returns ErrMissing when the key is absent and a conversion error otherwise.
func Lookup[T any](m map[string]any, key string) (T, error) {
	var zero T

	val, ok := m[key]
	if !ok {
		return zero, ErrMissing
	}

	var out any
	switch any(zero).(type) {
	case int:
		switch x := val.(type) {
		case int:
			out = x
		case int64:
			out = int(x)
		case float64:
			if x != float64(int(x)) {
				return zero, fmt.Errorf("%q: %v is not an integer", key, x)
			}
			out = int(x)
		case string:
			n, err := strconv.Atoi(x)
			if err != nil {
				return zero, fmt.Errorf("%q: %w", key, err)
			}
			out = n
		}
	case float64:
		switch x := val.(type) {
		case float64:
			out = x
		case int:
			out = float64(x)
		case int64:
			out = float64(x)
		case string:
			f, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return zero, fmt.Errorf("%q: %w", key, err)
			}
			out = f
		}
	case string:
		switch x := val.(type) {
		case string:
			out = x
		case int:
			out = strconv.Itoa(x)
		}
	case bool:
		switch x := val.(type) {
		case bool:
			out = x
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return zero, fmt.Errorf("%q: %w", key, err)
			}
			out = b
		}
	default:
		// fallback: if type matches exactly
		if v2, ok := val.(T); ok {
			return v2, nil
		}
	}

	if v, ok := out.(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("%q: cannot use %T as %T", key, val, zero)
}

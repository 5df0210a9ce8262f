package util

import (
	"fmt"
	"strconv"
	"strings"
)

// GetAsFloat converts an arbitrary scalar value to a float64
func GetAsFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to float: %w", t, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

// GetAsInteger converts an arbitrary scalar value to an int
func GetAsInteger(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to int: %w", t, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// GetAsString renders an arbitrary scalar value as a string
func GetAsString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

// ParsePercent parses a percentage string such as "61%" or "61" into its
// numeric value. Malformed input yields 0, which is the documented default
// for every extracted rate.
func ParsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// TitleFromSlug converts a hyphenated URL slug fragment to a display name,
// e.g. "manchester-united" -> "Manchester United"
func TitleFromSlug(slug string) string {
	words := strings.Split(strings.TrimSpace(slug), "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

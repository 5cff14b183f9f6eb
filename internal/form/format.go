package form

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	rfc3339Layout       = time.RFC3339
	dateLayout          = "2006-01-02"
	dateTimeLocalLayout = "2006-01-02T15:04"
	timeLayout          = "15:04"
)

// parseLayouts are tried in order when reading a stored date or time.
var parseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	dateTimeLocalLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// FormatDate renders a value for a date input. Unparseable values yield "".
func FormatDate(v any) string {
	if t, ok := asTime(v); ok {
		return t.Format(dateLayout)
	}
	return ""
}

// FormatDateTime renders a value for a datetime-local input.
func FormatDateTime(v any) string {
	if t, ok := asTime(v); ok {
		return t.Format(dateTimeLocalLayout)
	}
	return ""
}

// FormatTime renders a value for a time input. Bare "HH:MM[:SS]" strings
// and full timestamps are both accepted.
func FormatTime(v any) string {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		for _, layout := range []string{"15:04:05", timeLayout} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(timeLayout)
			}
		}
	}
	if t, ok := asTime(v); ok {
		return t.Format(timeLayout)
	}
	return ""
}

func asTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, true
	case string:
		return parseTime(val)
	default:
		return time.Time{}, false
	}
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeColor expands "#abc" and "abc" forms to lowercase "#aabbcc".
func NormalizeColor(s string) (string, bool) {
	m := hexColor.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return s, false
	}
	hex := strings.ToLower(m[1])
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return "#" + hex, true
}

// stringValue renders a scalar for a text-like control.
func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatNumber(val)
	case bool:
		return strconv.FormatBool(val)
	case []any, map[string]any:
		return jsonText(val)
	default:
		return fmt.Sprint(val)
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// jsonText shows strings as-is (they may hold invalid JSON the user typed)
// and indents everything else.
func jsonText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func toStrings(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	case string:
		if val == "" {
			return []string{}
		}
		return []string{val}
	default:
		return []string{}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

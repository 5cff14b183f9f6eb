package domain

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlPattern      = regexp.MustCompile(`^https?://\S+$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`)
	timePattern     = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
	colorPattern    = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// longTextThreshold is the length above which a plain string is shown as a textarea.
const longTextThreshold = 120

// InferType guesses a FieldType for a value that has no schema entry.
// It is a heuristic: the result only picks a widget, it never validates.
func InferType(v any) FieldType {
	switch val := v.(type) {
	case nil:
		return FieldText
	case bool:
		return FieldBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return FieldNumber
	case []string:
		return FieldTags
	case []any:
		for _, item := range val {
			if _, ok := item.(string); !ok {
				return FieldJSON
			}
		}
		return FieldTags
	case map[string]any, Record:
		return FieldJSON
	case string:
		return inferString(val)
	default:
		return FieldJSON
	}
}

func inferString(s string) FieldType {
	switch {
	case emailPattern.MatchString(s):
		return FieldEmail
	case urlPattern.MatchString(s):
		return FieldURL
	case datePattern.MatchString(s):
		return FieldDate
	case dateTimePattern.MatchString(s):
		return FieldDateTime
	case timePattern.MatchString(s):
		return FieldTime
	case colorPattern.MatchString(s):
		return FieldColor
	case strings.Contains(s, "\n") || len(s) > longTextThreshold:
		return FieldTextarea
	default:
		return FieldText
	}
}

// InferSchema proposes schema fields for the given keys, using the first
// non-nil value seen for each key across sample rows.
func InferSchema(keys []string, rows []Record) Schema {
	schema := make(Schema, 0, len(keys))
	for _, k := range keys {
		var sample any
		for _, r := range rows {
			if v, ok := r[k]; ok && v != nil {
				sample = v
				break
			}
		}
		schema = append(schema, SchemaField{Key: k, Label: humanize(k), Type: InferType(sample)})
	}
	return schema
}

// humanize turns "first_name" or "firstName" into "First name".
func humanize(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteByte(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return key
	}
	return strings.ToUpper(out[:1]) + out[1:]
}

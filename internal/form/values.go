package form

import (
	"net/url"
	"strings"

	"console/internal/domain"
)

// ApplyValues copies a posted HTML form into the draft, converting each
// value according to its field type. Read-only fields are ignored, and so
// are fields the post does not mention, except checkboxes, whose absence
// means false.
func (f *Form) ApplyValues(values url.Values) {
	fields := make(domain.Schema, 0, len(f.schema))
	for _, field := range f.schema {
		if !field.Hidden {
			fields = append(fields, field)
		}
	}
	fields = append(fields, f.extraFields()...)

	for _, field := range fields {
		if field.ReadOnly {
			continue
		}
		posted, ok := values[field.Key]
		if field.Type == domain.FieldBoolean {
			f.HandleChange(field.Key, ok && len(posted) > 0 && posted[len(posted)-1] != "false")
			continue
		}
		if !ok {
			continue
		}
		f.applyValue(field, posted, values)
	}
}

func (f *Form) applyValue(field domain.SchemaField, posted []string, values url.Values) {
	key := field.Key
	last := ""
	if len(posted) > 0 {
		last = posted[len(posted)-1]
	}

	switch field.Type {
	case domain.FieldNumber, domain.FieldRating, domain.FieldSlider:
		if strings.TrimSpace(last) == "" {
			f.HandleChange(key, nil)
			return
		}
		if n, ok := toFloat(last); ok {
			f.SetNumber(key, n)
		}
	case domain.FieldMultiSelect:
		selected := make([]string, 0, len(posted))
		for _, v := range posted {
			if v != "" {
				selected = append(selected, v)
			}
		}
		f.HandleChange(key, selected)
	case domain.FieldTags:
		f.HandleChange(key, []string{})
		for _, part := range strings.Split(last, ",") {
			f.AddTag(key, part)
		}
	case domain.FieldJSON:
		if strings.TrimSpace(last) == "" {
			f.HandleChange(key, nil)
			return
		}
		f.SetJSON(key, last)
	case domain.FieldColor:
		f.applyColor(key, last, values.Get(key+PickerSuffix))
	case domain.FieldDateTime:
		if last == "" {
			f.HandleChange(key, "")
			return
		}
		// Keep the stored timestamp when the minute-precision input is unchanged.
		if last == FormatDateTime(f.draft[key]) {
			return
		}
		f.SetDateTime(key, last)
	case domain.FieldDate:
		if last == FormatDate(f.draft[key]) && last != "" {
			return
		}
		f.SetDate(key, last)
	case domain.FieldTime:
		if last == FormatTime(f.draft[key]) && last != "" {
			return
		}
		f.SetTime(key, last)
	default:
		f.HandleChange(key, last)
	}
}

// PickerSuffix names the native color picker posted next to a color
// field's text entry.
const PickerSuffix = "__picker"

// applyColor treats the text entry as authoritative. The picker only counts
// when the text is untouched and the picker moved away from what it was
// rendered with. An unchanged color keeps its stored spelling.
func (f *Form) applyColor(key, text, picked string) {
	current := stringValue(f.draft[key])
	if text == current && picked != "" && picked != pickerValue(current) {
		text = picked
	}
	if text == current {
		return
	}
	f.SetColor(key, text)
}

// pickerValue is what an <input type=color> can show for a stored value.
// Browsers only accept the lowercase six-digit form.
func pickerValue(s string) string {
	if c, ok := NormalizeColor(s); ok {
		return c
	}
	return "#000000"
}

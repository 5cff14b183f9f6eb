package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// FieldType is the closed set of schema field tags a collection can declare.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldRichText    FieldType = "rich-text"
	FieldMarkdown    FieldType = "markdown"
	FieldNumber      FieldType = "number"
	FieldEmail       FieldType = "email"
	FieldURL         FieldType = "url"
	FieldPhone       FieldType = "phone"
	FieldPassword    FieldType = "password"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldBoolean     FieldType = "boolean"
	FieldDate        FieldType = "date"
	FieldDateTime    FieldType = "datetime"
	FieldTime        FieldType = "time"
	FieldJSON        FieldType = "json"
	FieldImage       FieldType = "image"
	FieldFile        FieldType = "file"
	FieldColor       FieldType = "color"
	FieldRating      FieldType = "rating"
	FieldSlider      FieldType = "slider"
	FieldTags        FieldType = "tags"
	FieldReference   FieldType = "reference"
)

// FieldTypes lists every supported tag in declaration order.
var FieldTypes = []FieldType{
	FieldText, FieldTextarea, FieldRichText, FieldMarkdown, FieldNumber,
	FieldEmail, FieldURL, FieldPhone, FieldPassword, FieldSelect,
	FieldMultiSelect, FieldBoolean, FieldDate, FieldDateTime, FieldTime,
	FieldJSON, FieldImage, FieldFile, FieldColor, FieldRating, FieldSlider,
	FieldTags, FieldReference,
}

// Valid reports whether t is one of the known tags.
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// HasOptions reports whether the type is driven by a list of options.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldMultiSelect
}

// FieldOption is one choice of a select or multiselect field.
// In JSON it may be written either as an object or as a bare string.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (o *FieldOption) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.Value, o.Label = s, s
		return nil
	}
	var raw struct {
		Value any    `json:"value"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("field option: %w", err)
	}
	if raw.Value != nil {
		o.Value = fmt.Sprint(raw.Value)
	}
	o.Label = raw.Label
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// SchemaField declares one attribute of a collection's records.
// Fields are immutable once loaded; they are authored through the schema
// builder and persisted as JSON alongside the collection.
type SchemaField struct {
	Key                   string        `json:"key"`
	Label                 string        `json:"label"`
	Type                  FieldType     `json:"type"`
	Required              bool          `json:"required,omitempty"`
	Options               []FieldOption `json:"options,omitempty"`
	DefaultValue          any           `json:"defaultValue,omitempty"`
	Min                   *float64      `json:"min,omitempty"`
	Max                   *float64      `json:"max,omitempty"`
	Step                  *float64      `json:"step,omitempty"`
	Accept                string        `json:"accept,omitempty"`
	ReferenceType         string        `json:"referenceType,omitempty"`
	ReferenceDisplayField string        `json:"referenceDisplayField,omitempty"`
	Hidden                bool          `json:"hidden,omitempty"`
	ReadOnly              bool          `json:"readonly,omitempty"`
	HelpText              string        `json:"helpText,omitempty"`
	Placeholder           string        `json:"placeholder,omitempty"`
}

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidKey reports whether key can be used as a schema field key.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// Schema is the ordered field list of a collection.
type Schema []SchemaField

// Field returns the field with the given key.
func (s Schema) Field(key string) (SchemaField, bool) {
	for _, f := range s {
		if f.Key == key {
			return f, true
		}
	}
	return SchemaField{}, false
}

// Keys returns the field keys in schema order.
func (s Schema) Keys() []string {
	keys := make([]string, len(s))
	for i, f := range s {
		keys[i] = f.Key
	}
	return keys
}

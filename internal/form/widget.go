package form

import (
	"math"
	"strings"
	"sync"

	"console/internal/domain"
)

// Kind is the control a widget renders as. Several field types share one.
type Kind string

const (
	KindInput       Kind = "input"
	KindTextarea    Kind = "textarea"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
	KindCheckbox    Kind = "checkbox"
	KindJSON        Kind = "json"
	KindTags        Kind = "tags"
	KindColor       Kind = "color"
	KindPassword    Kind = "password"
	KindUpload      Kind = "upload"
	KindRating      Kind = "rating"
	KindSlider      Kind = "slider"
)

// Choice is one option of a select, multiselect or rating widget.
type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// Widget is the render model of one field.
type Widget struct {
	Key         string
	Label       string
	Type        domain.FieldType
	Kind        Kind
	InputType   string // type attribute for KindInput and KindPassword
	Value       string // current value as shown in the control
	Raw         any
	Choices     []Choice
	Tags        []string
	Checked     bool
	Min         string
	Max         string
	Step        string
	Accept      string
	Image       bool
	HelpText    string
	Placeholder string
	Reference   string // referenced collection, for reference fields
	Picker      string // color picker value, always #rrggbb
	Required    bool
	ReadOnly    bool
	Revealed    bool
	Extra       bool
}

// BuildFunc fills in the type-specific parts of a widget. The common
// parts (key, label, flags) are already set.
type BuildFunc func(w *Widget, field domain.SchemaField, value any)

var (
	buildersMu sync.RWMutex
	builders   = map[domain.FieldType]BuildFunc{
		domain.FieldText:        inputWidget("text"),
		domain.FieldEmail:       inputWidget("email"),
		domain.FieldURL:         inputWidget("url"),
		domain.FieldPhone:       inputWidget("tel"),
		domain.FieldReference:   referenceWidget,
		domain.FieldNumber:      numberWidget,
		domain.FieldTextarea:    textareaWidget,
		domain.FieldRichText:    textareaWidget,
		domain.FieldMarkdown:    textareaWidget,
		domain.FieldPassword:    passwordWidget,
		domain.FieldSelect:      selectWidget,
		domain.FieldMultiSelect: multiSelectWidget,
		domain.FieldBoolean:     checkboxWidget,
		domain.FieldDate:        dateWidget("date", FormatDate),
		domain.FieldDateTime:    dateWidget("datetime-local", FormatDateTime),
		domain.FieldTime:        dateWidget("time", FormatTime),
		domain.FieldJSON:        jsonWidget,
		domain.FieldImage:       uploadWidget(true),
		domain.FieldFile:        uploadWidget(false),
		domain.FieldColor:       colorWidget,
		domain.FieldRating:      ratingWidget,
		domain.FieldSlider:      sliderWidget,
		domain.FieldTags:        tagsWidget,
	}
)

// RegisterWidget replaces the builder used for a field type.
func RegisterWidget(t domain.FieldType, fn BuildFunc) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[t] = fn
}

func builderFor(t domain.FieldType) BuildFunc {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	if fn, ok := builders[t]; ok {
		return fn
	}
	return builders[domain.FieldText]
}

func buildWidget(field domain.SchemaField, value any) Widget {
	w := Widget{
		Key:         field.Key,
		Label:       field.Label,
		Type:        field.Type,
		Raw:         value,
		HelpText:    field.HelpText,
		Placeholder: field.Placeholder,
		Required:    field.Required,
		ReadOnly:    field.ReadOnly,
	}
	if w.Label == "" {
		w.Label = field.Key
	}
	builderFor(field.Type)(&w, field, value)
	return w
}

// ── Builders ───────────────────────────────────────────────

func inputWidget(inputType string) BuildFunc {
	return func(w *Widget, _ domain.SchemaField, value any) {
		w.Kind = KindInput
		w.InputType = inputType
		w.Value = stringValue(value)
	}
}

func referenceWidget(w *Widget, field domain.SchemaField, value any) {
	inputWidget("text")(w, field, value)
	w.Reference = field.ReferenceType
}

func numberWidget(w *Widget, field domain.SchemaField, value any) {
	inputWidget("number")(w, field, value)
	setRange(w, field)
}

func textareaWidget(w *Widget, _ domain.SchemaField, value any) {
	w.Kind = KindTextarea
	w.Value = stringValue(value)
}

func passwordWidget(w *Widget, _ domain.SchemaField, value any) {
	w.Kind = KindPassword
	w.InputType = "password"
	w.Value = stringValue(value)
}

func selectWidget(w *Widget, field domain.SchemaField, value any) {
	w.Kind = KindSelect
	w.Value = stringValue(value)
	w.Choices = choices(field.Options, []string{w.Value})
}

func multiSelectWidget(w *Widget, field domain.SchemaField, value any) {
	w.Kind = KindMultiSelect
	w.Choices = choices(field.Options, toStrings(value))
}

// maxRatingStars bounds the stars drawn for a rating field. Values past
// the last star are still stored and clamped by the schema range.
const maxRatingStars = 10

func checkboxWidget(w *Widget, _ domain.SchemaField, value any) {
	w.Kind = KindCheckbox
	w.Checked, _ = value.(bool)
}

func dateWidget(inputType string, format func(any) string) BuildFunc {
	return func(w *Widget, _ domain.SchemaField, value any) {
		w.Kind = KindInput
		w.InputType = inputType
		w.Value = format(value)
	}
}

func jsonWidget(w *Widget, _ domain.SchemaField, value any) {
	w.Kind = KindJSON
	w.Value = jsonText(value)
}

func uploadWidget(image bool) BuildFunc {
	return func(w *Widget, field domain.SchemaField, value any) {
		w.Kind = KindUpload
		w.Image = image
		w.Accept = field.Accept
		if w.Accept == "" && image {
			w.Accept = "image/*"
		}
		w.Value = stringValue(value)
	}
}

func colorWidget(w *Widget, _ domain.SchemaField, value any) {
	w.Kind = KindColor
	w.Value = stringValue(value)
	w.Picker = pickerValue(w.Value)
}

func ratingWidget(w *Widget, field domain.SchemaField, value any) {
	w.Kind = KindRating
	lo, hi := numberRange(field)
	current, _ := toFloat(value)
	for v := math.Ceil(lo); v <= hi && len(w.Choices) < maxRatingStars; v++ {
		if v == 0 {
			continue
		}
		label := formatNumber(v)
		w.Choices = append(w.Choices, Choice{Value: label, Label: label, Selected: v <= current})
	}
	w.Value = stringValue(value)
}

func sliderWidget(w *Widget, field domain.SchemaField, value any) {
	w.Kind = KindSlider
	setRange(w, field)
	lo, hi := numberRange(field)
	w.Min = formatNumber(lo)
	w.Max = formatNumber(hi)
	w.Value = stringValue(value)
}

func tagsWidget(w *Widget, _ domain.SchemaField, value any) {
	w.Kind = KindTags
	w.Tags = toStrings(value)
	w.Value = strings.Join(w.Tags, ", ")
}

// ── Builder helpers ────────────────────────────────────────

// choices marks the selected options. A selected value that is not among
// the options is kept as an extra selected choice so that an untouched
// post sends it back.
func choices(options []domain.FieldOption, selected []string) []Choice {
	out := make([]Choice, len(options), len(options)+len(selected))
	known := make(map[string]bool, len(options))
	for i, o := range options {
		out[i] = Choice{Value: o.Value, Label: o.Label}
		known[o.Value] = true
		for _, s := range selected {
			if s == o.Value {
				out[i].Selected = true
			}
		}
	}
	for _, s := range selected {
		if s != "" && !known[s] {
			out = append(out, Choice{Value: s, Label: s, Selected: true})
			known[s] = true
		}
	}
	return out
}

func setRange(w *Widget, field domain.SchemaField) {
	if field.Min != nil {
		w.Min = formatNumber(*field.Min)
	}
	if field.Max != nil {
		w.Max = formatNumber(*field.Max)
	}
	if field.Step != nil {
		w.Step = formatNumber(*field.Step)
	}
}

// numberRange is the effective range of a slider or rating field.
func numberRange(field domain.SchemaField) (float64, float64) {
	lo, hi := 0.0, 100.0
	if field.Type == domain.FieldRating {
		hi = 5
	}
	if field.Min != nil {
		lo = *field.Min
	}
	if field.Max != nil {
		hi = *field.Max
	}
	return lo, hi
}

func clampNumber(field domain.SchemaField, v float64) float64 {
	if field.Type != domain.FieldSlider && field.Type != domain.FieldRating {
		return v
	}
	lo, hi := numberRange(field)
	return max(lo, min(v, hi))
}

// Package form turns a collection schema and an optional record into an
// editable draft, and renders it as an HTML form.
package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sort"
	"strings"

	"console/internal/domain"
)

var (
	// ErrNoUploader is returned by Upload when the form has no uploader.
	ErrNoUploader = errors.New("form has no uploader")
	// ErrSubmitting is returned by Submit while a previous submit is in flight.
	ErrSubmitting = errors.New("form is already submitting")
)

// Uploader stores an uploaded file and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Option configures a Form.
type Option func(*Form)

// WithUploader sets the uploader used by image and file fields.
func WithUploader(u Uploader) Option {
	return func(f *Form) { f.uploader = u }
}

// WithSubmit sets the callback receiving the draft on Submit.
func WithSubmit(fn func(ctx context.Context, data domain.Record) error) Option {
	return func(f *Form) { f.onSubmit = fn }
}

// WithCancel sets the callback invoked by Cancel.
func WithCancel(fn func()) Option {
	return func(f *Form) { f.onCancel = fn }
}

// WithSubmitting marks the form as submitting, which disables its buttons.
func WithSubmitting(submitting bool) Option {
	return func(f *Form) { f.submitting = submitting }
}

// WithAction sets the URL the rendered HTML form posts to.
func WithAction(action string) Option {
	return func(f *Form) { f.action = action }
}

// Form holds a draft record being edited against a schema. A Form is
// used from one request or goroutine at a time.
type Form struct {
	schema   domain.Schema
	initial  domain.Record
	draft    domain.Record
	revealed map[string]bool

	uploader   Uploader
	onSubmit   func(ctx context.Context, data domain.Record) error
	onCancel   func()
	submitting bool
	action     string
}

// NewForm creates a form. The draft is a deep copy of initial; when initial
// is nil it is seeded from the schema's default values.
func NewForm(schema domain.Schema, initial domain.Record, opts ...Option) *Form {
	f := &Form{
		schema:   schema,
		initial:  initial,
		revealed: map[string]bool{},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.reset()
	return f
}

func (f *Form) reset() {
	if f.initial != nil {
		f.draft = copyRecord(f.initial)
		return
	}
	f.draft = domain.Record{}
	for _, field := range f.schema {
		if field.DefaultValue != nil {
			f.draft[field.Key] = deepCopy(field.DefaultValue)
		}
	}
}

// Schema returns the schema the form was built with.
func (f *Form) Schema() domain.Schema { return f.schema }

// Draft returns a deep copy of the current draft.
func (f *Form) Draft() domain.Record { return copyRecord(f.draft) }

// Value returns the draft value stored under key.
func (f *Form) Value(key string) any { return f.draft[key] }

// Submitting reports whether a submit is in flight.
func (f *Form) Submitting() bool { return f.submitting }

// ── Widgets ────────────────────────────────────────────────

// Widgets returns one widget per visible schema field in schema order,
// then one per extra draft field, sorted by key, with an inferred type.
func (f *Form) Widgets() []Widget {
	widgets := make([]Widget, 0, len(f.schema))
	for _, field := range f.schema {
		if field.Hidden {
			continue
		}
		widgets = append(widgets, f.widget(field, false))
	}
	for _, field := range f.extraFields() {
		widgets = append(widgets, f.widget(field, true))
	}
	return widgets
}

// extraFields infers schema fields for draft keys the schema does not
// declare. The record id is never shown.
func (f *Form) extraFields() domain.Schema {
	var keys []string
	for k := range f.draft {
		if k == "id" {
			continue
		}
		if _, ok := f.schema.Field(k); !ok {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	return domain.InferSchema(keys, []domain.Record{f.draft})
}

func (f *Form) widget(field domain.SchemaField, extra bool) Widget {
	w := buildWidget(field, f.draft[field.Key])
	w.Extra = extra
	if w.Kind == KindPassword && f.revealed[field.Key] {
		w.Revealed = true
		w.InputType = "text"
	}
	return w
}

// field resolves key to a schema field or an inferred extra field.
func (f *Form) field(key string) (domain.SchemaField, bool) {
	if field, ok := f.schema.Field(key); ok {
		return field, true
	}
	if _, ok := f.draft[key]; ok {
		return domain.InferSchema([]string{key}, []domain.Record{f.draft})[0], true
	}
	return domain.SchemaField{}, false
}

// ── Setters ────────────────────────────────────────────────

// HandleChange shallow-merges value into the draft under key.
func (f *Form) HandleChange(key string, value any) {
	f.draft[key] = value
}

// Toggle flips a boolean field. A missing or non-boolean value becomes true.
func (f *Form) Toggle(key string) bool {
	current, _ := f.draft[key].(bool)
	f.HandleChange(key, !current)
	return !current
}

// SetJSON parses raw as JSON. Invalid JSON is kept as the raw string.
func (f *Form) SetJSON(key, raw string) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		f.HandleChange(key, raw)
		return
	}
	f.HandleChange(key, v)
}

// AddTag appends a trimmed tag unless it is empty or already present.
func (f *Form) AddTag(key, tag string) {
	tag = strings.TrimSpace(tag)
	tags := toStrings(f.draft[key])
	if tag == "" || slices.Contains(tags, tag) {
		f.HandleChange(key, tags)
		return
	}
	f.HandleChange(key, append(tags, tag))
}

// RemoveTag removes every occurrence of tag.
func (f *Form) RemoveTag(key, tag string) {
	tags := toStrings(f.draft[key])
	f.HandleChange(key, slices.DeleteFunc(tags, func(t string) bool { return t == tag }))
}

// SetColor stores a color, normalised to lowercase #rrggbb when valid.
func (f *Form) SetColor(key, value string) {
	if c, ok := NormalizeColor(value); ok {
		value = c
	}
	f.HandleChange(key, value)
}

// SetDate stores a date input value (YYYY-MM-DD).
func (f *Form) SetDate(key, value string) {
	f.HandleChange(key, value)
}

// SetDateTime stores a datetime-local input value as an RFC 3339 string.
// Values that do not parse are stored as given.
func (f *Form) SetDateTime(key, value string) {
	if t, ok := parseTime(value); ok {
		value = t.UTC().Format(rfc3339Layout)
	}
	f.HandleChange(key, value)
}

// SetTime stores a time input value (HH:MM).
func (f *Form) SetTime(key, value string) {
	f.HandleChange(key, value)
}

// SetNumber stores a number. Slider and rating values are clamped to the
// field's range.
func (f *Form) SetNumber(key string, value float64) float64 {
	if field, ok := f.field(key); ok {
		value = clampNumber(field, value)
	}
	f.HandleChange(key, value)
	return value
}

// ToggleReveal flips the visibility of a password field. It is UI state
// only and never touches the draft.
func (f *Form) ToggleReveal(key string) bool {
	f.revealed[key] = !f.revealed[key]
	return f.revealed[key]
}

// ── Upload / Submit / Cancel ───────────────────────────────

// CanUpload reports whether key is a visible, writable image or file field.
func (f *Form) CanUpload(key string) bool {
	field, ok := f.schema.Field(key)
	if !ok || field.Hidden || field.ReadOnly {
		return false
	}
	return field.Type == domain.FieldImage || field.Type == domain.FieldFile
}

// Upload sends a file through the uploader and stores the returned URL
// under key. On failure the field is left unchanged.
func (f *Form) Upload(ctx context.Context, key, filename string, r io.Reader) (string, error) {
	if f.uploader == nil {
		return "", ErrNoUploader
	}
	url, err := f.uploader.Upload(ctx, filename, r)
	if err != nil {
		log.Printf("[form] upload %q for field %s failed: %v", filename, key, err)
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	f.HandleChange(key, url)
	return url, nil
}

// Submit hands a deep copy of the draft to the submit callback and
// returns it. No validation happens here.
func (f *Form) Submit(ctx context.Context) (domain.Record, error) {
	if f.submitting {
		return nil, ErrSubmitting
	}
	data := copyRecord(f.draft)
	if f.onSubmit == nil {
		return data, nil
	}
	f.submitting = true
	defer func() { f.submitting = false }()
	if err := f.onSubmit(ctx, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Cancel discards the draft and calls the cancel callback.
func (f *Form) Cancel() {
	f.reset()
	f.revealed = map[string]bool{}
	if f.onCancel != nil {
		f.onCancel()
	}
}

// ── Copy helpers ───────────────────────────────────────────

func copyRecord(r domain.Record) domain.Record {
	out := make(domain.Record, len(r))
	for k, v := range r {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case domain.Record:
		return copyRecord(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return slices.Clone(val)
	default:
		return v
	}
}

package view

import (
	"context"
	"errors"
	"fmt"

	"console/internal/domain"
	"console/internal/form"
	"console/internal/preference"
)

// Mode is the active layout.
type Mode string

const (
	ModeTable Mode = "table"
	ModeList  Mode = "list"
	ModeGrid  Mode = "grid"
)

// Modes lists the layouts in switcher order.
var Modes = []Mode{ModeTable, ModeList, ModeGrid}

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

var (
	// ErrNotAllowed is returned when the capability for an action is off
	// or no callback handles it.
	ErrNotAllowed = errors.New("action not allowed")
	// ErrNoSchema is returned when a form is requested without a schema.
	ErrNoSchema = errors.New("view has no schema")
	// ErrNoModal is returned when there is no open modal to act on.
	ErrNoModal = errors.New("no modal open")
)

// Config describes a view. Callbacks are optional; an action whose
// callback is nil is not offered.
type Config struct {
	Collection string
	Title      string
	App        domain.AppContext
	Columns    []Column
	Data       []domain.Record
	Loading    bool
	Error      string
	Schema     domain.Schema
	CanCreate  bool
	CanUpdate  bool
	CanDelete  bool
	Prefs      preference.Store

	OnAdd      func(ctx context.Context, data domain.Record) error
	OnEdit     func(ctx context.Context, record, data domain.Record) error
	OnDelete   func(ctx context.Context, record domain.Record) error
	OnRowClick func(record domain.Record)

	// BasePath is the URL the rendered page links back to.
	BasePath string
}

// Modal is an add or edit form shown over the view.
type Modal struct {
	Title  string
	Form   *form.Form
	Record domain.Record // nil when adding
	Error  string        // last submit failure
}

// View is the state of one rendered collection view.
type View struct {
	cfg   Config
	mode  Mode
	query string
	modal *Modal
}

// New creates a view, loading its mode from the preference store.
// A missing or unreadable preference means table.
func New(ctx context.Context, cfg Config) *View {
	if cfg.Columns == nil {
		cfg.Columns = ColumnsFromSchema(cfg.Schema)
	}
	if cfg.Title == "" {
		cfg.Title = cfg.Collection
	}
	v := &View{cfg: cfg, mode: ModeTable}
	if cfg.Prefs != nil {
		if s, err := cfg.Prefs.Get(ctx, v.prefKey()); err == nil {
			if m, ok := ParseMode(s); ok {
				v.mode = m
			}
		}
	}
	return v
}

func (v *View) prefKey() string {
	return preference.ViewKey(v.cfg.Collection, v.cfg.App.AppID)
}

func (v *View) Mode() Mode { return v.mode }

// SetMode switches the layout and persists it.
func (v *View) SetMode(ctx context.Context, m Mode) error {
	if _, ok := ParseMode(string(m)); !ok {
		return fmt.Errorf("unknown view mode %q", m)
	}
	v.mode = m
	if v.cfg.Prefs == nil {
		return nil
	}
	return v.cfg.Prefs.Save(ctx, v.prefKey(), string(m))
}

// Query returns the current search text.
func (v *View) Query() string { return v.query }

// SetQuery sets the search text. Rows are filtered on every call to Rows.
func (v *View) SetQuery(q string) { v.query = q }

// Filtered returns the records matching the current query.
func (v *View) Filtered() []domain.Record {
	return Search(v.cfg.Columns, v.cfg.Data, v.query)
}

// Row is one rendered record.
type Row struct {
	ID     string
	Record domain.Record
	Cells  []string
}

// Rows returns the filtered records with their cells rendered.
func (v *View) Rows() []Row {
	filtered := v.Filtered()
	rows := make([]Row, len(filtered))
	for i, rec := range filtered {
		cells := make([]string, len(v.cfg.Columns))
		for j, col := range v.cfg.Columns {
			val := GetCellValue(rec, col.Accessor)
			if col.Render != nil {
				cells[j] = col.Render(val, rec)
			} else {
				cells[j] = FormatCell(val)
			}
		}
		id, _ := rec["id"].(string)
		rows[i] = Row{ID: id, Record: rec, Cells: cells}
	}
	return rows
}

// ── Actions ────────────────────────────────────────────────

func (v *View) CanAdd() bool    { return v.cfg.CanCreate && v.cfg.OnAdd != nil }
func (v *View) CanEdit() bool   { return v.cfg.CanUpdate && v.cfg.OnEdit != nil }
func (v *View) CanDelete() bool { return v.cfg.CanDelete && v.cfg.OnDelete != nil }

// OpenAdd opens an empty form for a new record.
func (v *View) OpenAdd(opts ...form.Option) (*Modal, error) {
	if !v.CanAdd() {
		return nil, ErrNotAllowed
	}
	if len(v.cfg.Schema) == 0 {
		return nil, ErrNoSchema
	}
	opts = append(opts, form.WithSubmit(v.cfg.OnAdd))
	v.modal = &Modal{
		Title: "Add " + v.cfg.Title,
		Form:  form.NewForm(v.cfg.Schema, nil, opts...),
	}
	return v.modal, nil
}

// OpenEdit opens a form pre-filled with record.
func (v *View) OpenEdit(record domain.Record, opts ...form.Option) (*Modal, error) {
	if !v.CanEdit() {
		return nil, ErrNotAllowed
	}
	if len(v.cfg.Schema) == 0 {
		return nil, ErrNoSchema
	}
	onEdit := v.cfg.OnEdit
	opts = append(opts, form.WithSubmit(func(ctx context.Context, data domain.Record) error {
		return onEdit(ctx, record, data)
	}))
	v.modal = &Modal{
		Title:  "Edit " + v.cfg.Title,
		Form:   form.NewForm(v.cfg.Schema, record, opts...),
		Record: record,
	}
	return v.modal, nil
}

// Modal returns the open modal, or nil.
func (v *View) Modal() *Modal { return v.modal }

// SubmitModal submits the open form. The modal closes on success and
// stays open when the callback fails.
func (v *View) SubmitModal(ctx context.Context) (domain.Record, error) {
	if v.modal == nil {
		return nil, ErrNoModal
	}
	data, err := v.modal.Form.Submit(ctx)
	if err != nil {
		v.modal.Error = err.Error()
		return nil, err
	}
	v.modal = nil
	return data, nil
}

// CloseModal discards the open form.
func (v *View) CloseModal() {
	if v.modal != nil {
		v.modal.Form.Cancel()
		v.modal = nil
	}
}

// Delete removes a record through the delete callback.
func (v *View) Delete(ctx context.Context, record domain.Record) error {
	if !v.CanDelete() {
		return ErrNotAllowed
	}
	return v.cfg.OnDelete(ctx, record)
}

// RowClick forwards a row selection to the callback, if any.
func (v *View) RowClick(record domain.Record) {
	if v.cfg.OnRowClick != nil {
		v.cfg.OnRowClick(record)
	}
}

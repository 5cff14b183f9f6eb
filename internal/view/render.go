package view

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("view").Funcs(template.FuncMap{
	"rowCtx": func(page pageData, row Row) rowContext { return rowContext{Page: page, Row: row} },
}).ParseFS(templateFS, "templates/*.html"))

type rowContext struct {
	Page pageData
	Row  Row
}

type pageData struct {
	Title     string
	BasePath  string
	Mode      Mode
	Modes     []Mode
	Query     string
	Columns   []Column
	Rows      []Row
	Loading   bool
	Error     string
	CanAdd    bool
	CanEdit   bool
	CanDelete bool
	Modal     *modalData
}

type modalData struct {
	Title string
	Error string
	Form  template.HTML
}

// Render writes the view as HTML in its active layout, including the
// open modal if there is one.
func (v *View) Render(w io.Writer) error {
	data := pageData{
		Title:     v.cfg.Title,
		BasePath:  v.cfg.BasePath,
		Mode:      v.mode,
		Modes:     Modes,
		Query:     v.query,
		Columns:   v.cfg.Columns,
		Loading:   v.cfg.Loading,
		Error:     v.cfg.Error,
		CanAdd:    v.CanAdd(),
		CanEdit:   v.CanEdit(),
		CanDelete: v.CanDelete(),
	}
	if !v.cfg.Loading && v.cfg.Error == "" {
		data.Rows = v.Rows()
	}
	if v.modal != nil {
		html, err := v.modal.Form.HTML()
		if err != nil {
			return err
		}
		data.Modal = &modalData{Title: v.modal.Title, Error: v.modal.Error, Form: html}
	}
	return templates.ExecuteTemplate(w, "view.html", data)
}

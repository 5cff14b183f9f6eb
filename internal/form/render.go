package form

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates *template.Template

func init() {
	templates = template.Must(template.New("form").Funcs(template.FuncMap{
		"widget": renderWidget,
	}).ParseFS(templateFS, "templates/*.html"))
}

// renderWidget executes the template named after the widget's kind.
func renderWidget(w Widget) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "widget-"+string(w.Kind), w); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

type formData struct {
	Action     string
	Widgets    []Widget
	Submitting bool
}

// Render writes the form as HTML.
func (f *Form) Render(w io.Writer) error {
	return templates.ExecuteTemplate(w, "form.html", formData{
		Action:     f.action,
		Widgets:    f.Widgets(),
		Submitting: f.submitting,
	})
}

// HTML renders the form to a string for embedding in another page.
func (f *Form) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

package api

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"console/internal/domain"
	"console/internal/form"
	"console/internal/preference"
	"console/internal/service"
	"console/internal/view"
)

// ── Server-rendered collection pages ───────────────────────
// Each request rebuilds the view from the stored records. The mode is
// read from a cookie first and the app's preference store second, and
// written to both.

func uiBasePath(app domain.AppContext, collection string) string {
	return "/ui/apps/" + url.PathEscape(app.AppID) + "/collections/" + url.PathEscape(collection)
}

// loadView builds the view of a collection for this request.
func (s *Server) loadView(w http.ResponseWriter, r *http.Request) (*view.View, error) {
	ctx := r.Context()
	app := appContext(r)
	name := chi.URLParam(r, "name")

	c, err := s.deps.Collections.Get(ctx, app, name)
	if err != nil {
		return nil, err
	}

	cfg := view.Config{
		Collection: c.Name,
		Title:      c.DisplayName,
		App:        app,
		Schema:     c.Schema,
		CanCreate:  c.CanCreate,
		CanUpdate:  c.CanUpdate,
		CanDelete:  c.CanDelete,
		Prefs: &preference.Mirror{
			Local:  preference.NewCookieStore(w, r),
			Remote: s.deps.Preferences(app.AppID),
		},
		BasePath: uiBasePath(app, c.Name),
		OnAdd: func(ctx context.Context, data domain.Record) error {
			_, err := s.deps.Records.Create(ctx, app, c.Name, data)
			return err
		},
		OnEdit: func(ctx context.Context, record, data domain.Record) error {
			id, _ := record["id"].(string)
			_, err := s.deps.Records.Update(ctx, app, c.Name, id, data)
			return err
		},
		OnDelete: func(ctx context.Context, record domain.Record) error {
			id, _ := record["id"].(string)
			return s.deps.Records.Delete(ctx, app, c.Name, id)
		},
	}

	records, err := s.deps.Records.List(ctx, app, c.Name)
	if err != nil {
		log.Printf("[ui] list %s/%s: %v", app.AppID, c.Name, err)
		cfg.Error = "Could not load records."
	}
	cfg.Data = records
	return view.New(ctx, cfg), nil
}

func (s *Server) uiView(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(w, r)
	if err != nil {
		s.uiError(w, err)
		return
	}
	if raw := r.URL.Query().Get("mode"); raw != "" {
		if m, ok := view.ParseMode(raw); ok {
			if err := v.SetMode(r.Context(), m); err != nil {
				log.Printf("[ui] save view mode: %v", err)
			}
		}
	}
	v.SetQuery(r.URL.Query().Get("q"))
	renderView(w, http.StatusOK, v)
}

func (s *Server) uiNew(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(w, r)
	if err != nil {
		s.uiError(w, err)
		return
	}
	modal, err := v.OpenAdd(s.formOptions(r)...)
	if err != nil {
		s.uiError(w, err)
		return
	}
	s.handleModal(w, r, v, modal)
}

func (s *Server) uiEdit(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(w, r)
	if err != nil {
		s.uiError(w, err)
		return
	}
	record, err := s.deps.Records.Get(r.Context(), appContext(r), chi.URLParam(r, "name"), chi.URLParam(r, "id"))
	if err != nil {
		s.uiError(w, err)
		return
	}
	modal, err := v.OpenEdit(record, s.formOptions(r)...)
	if err != nil {
		s.uiError(w, err)
		return
	}
	s.handleModal(w, r, v, modal)
}

func (s *Server) uiDelete(w http.ResponseWriter, r *http.Request) {
	v, err := s.loadView(w, r)
	if err != nil {
		s.uiError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := v.Delete(r.Context(), domain.Record{"id": id}); err != nil {
		s.uiError(w, err)
		return
	}
	http.Redirect(w, r, uiBasePath(appContext(r), chi.URLParam(r, "name")), http.StatusSeeOther)
}

func (s *Server) formOptions(r *http.Request) []form.Option {
	opts := []form.Option{form.WithAction(r.URL.Path)}
	if s.deps.Uploader != nil {
		opts = append(opts, form.WithUploader(s.deps.Uploader))
	}
	return opts
}

// handleModal renders the open modal on GET. On POST it applies the posted
// values and then cancels, toggles a password reveal, or submits.
func (s *Server) handleModal(w http.ResponseWriter, r *http.Request, v *view.View, modal *view.Modal) {
	if r.Method != http.MethodPost {
		renderView(w, http.StatusOK, v)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid form body: "+err.Error())
		return
	}

	base := uiBasePath(appContext(r), chi.URLParam(r, "name"))
	if r.PostFormValue("_action") == "cancel" {
		v.CloseModal()
		http.Redirect(w, r, base, http.StatusSeeOther)
		return
	}

	f := modal.Form
	f.ApplyValues(r.PostForm)

	if key := r.PostFormValue("_reveal"); key != "" {
		f.ToggleReveal(key)
		renderView(w, http.StatusOK, v)
		return
	}

	if r.MultipartForm != nil {
		for key, headers := range r.MultipartForm.File {
			if len(headers) == 0 || headers[0].Filename == "" {
				continue
			}
			if !f.CanUpload(key) {
				log.Printf("[ui] ignoring upload for field %q", key)
				continue
			}
			file, err := headers[0].Open()
			if err != nil {
				modal.Error = err.Error()
				renderView(w, http.StatusUnprocessableEntity, v)
				return
			}
			_, err = f.Upload(r.Context(), key, headers[0].Filename, file)
			file.Close()
			if err != nil {
				modal.Error = err.Error()
				renderView(w, http.StatusUnprocessableEntity, v)
				return
			}
		}
	}

	if _, err := v.SubmitModal(r.Context()); err != nil {
		renderView(w, http.StatusUnprocessableEntity, v)
		return
	}
	http.Redirect(w, r, base, http.StatusSeeOther)
}

func renderView(w http.ResponseWriter, status int, v *view.View) {
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		log.Printf("[ui] render: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) uiError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, view.ErrNotAllowed), errors.Is(err, service.ErrForbidden):
		http.Error(w, "not allowed", http.StatusForbidden)
	case errors.Is(err, view.ErrNoSchema), errors.As(err, &verr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[ui] %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

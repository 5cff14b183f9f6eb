// Package api serves the console's REST API, its server-rendered pages and
// the event stream.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"console/internal/domain"
	"console/internal/preference"
	"console/internal/service"
	"console/internal/upload"
)

const (
	maxUploadSize   = 32 << 20
	shutdownTimeout = 10 * time.Second
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Collections *service.CollectionService
	Records     *service.RecordService
	Settings    *service.SettingsService
	Imports     *service.ImportService
	Uploader    upload.Uploader

	// Preferences returns the remote preference store of an app.
	Preferences func(appID string) preference.Store

	// Events streams emitted events; nil disables /api/events.
	Events http.Handler

	// FilesDir is served at /files/ when set.
	FilesDir string
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// New creates a Server. Without a Preferences func, app preferences are
// kept in the settings service, or in memory when there is none.
func New(deps Deps) *Server {
	switch {
	case deps.Preferences != nil:
	case deps.Settings != nil:
		settings := deps.Settings
		deps.Preferences = func(appID string) preference.Store {
			return settings.PreferenceStore(service.AppScope(appID))
		}
	default:
		mem := preference.NewMemoryStore()
		deps.Preferences = func(string) preference.Store { return mem }
	}
	return &Server{deps: deps}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/apps/{appID}", func(r chi.Router) {
			r.Route("/collections", func(r chi.Router) {
				r.Get("/", s.listCollections)
				r.Post("/", s.createCollection)
				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", s.getCollection)
					r.Put("/", s.updateCollection)
					r.Delete("/", s.deleteCollection)
					r.Get("/stats", s.collectionStats)

					r.Get("/records", s.listRecords)
					r.Post("/records", s.createRecord)
					r.Get("/records/{id}", s.getRecord)
					r.Put("/records/{id}", s.updateRecord)
					r.Delete("/records/{id}", s.deleteRecord)
					r.Post("/records/{id}/duplicate", s.duplicateRecord)
				})
			})

			r.Get("/preferences/{key}", s.getPreference)
			r.Put("/preferences/{key}", s.savePreference)

			r.Get("/imports", s.listImports)
			r.Post("/imports", s.createImport)
			r.Get("/imports/{id}", s.getImport)
			r.Put("/imports/{id}", s.updateImport)
			r.Delete("/imports/{id}", s.deleteImport)
			r.Post("/imports/{id}/run", s.runImport)
			r.Get("/imports/{id}/logs", s.importLogs)
		})

		r.Get("/settings", s.listSettings)
		r.Get("/settings/{key}", s.getSetting)
		r.Put("/settings/{key}", s.putSetting)
		r.Delete("/settings/{key}", s.deleteSetting)

		r.Post("/uploads", s.uploadFile)

		r.Get("/imports/sources", s.importSources)
		r.Post("/imports/discover", s.discoverImport)

		if s.deps.Events != nil {
			r.Get("/events", s.deps.Events.ServeHTTP)
		}
	})

	r.Route("/ui/apps/{appID}/collections/{name}", func(r chi.Router) {
		r.Get("/", s.uiView)
		r.Get("/new", s.uiNew)
		r.Post("/new", s.uiNew)
		r.Get("/records/{id}/edit", s.uiEdit)
		r.Post("/records/{id}/edit", s.uiEdit)
		r.Post("/records/{id}/delete", s.uiDelete)
	})

	if s.deps.FilesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(s.deps.FilesDir))))
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("[api] listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// appContext reads the app from the path and the user from X-User-ID.
func appContext(r *http.Request) domain.AppContext {
	return domain.AppContext{
		AppID:  chi.URLParam(r, "appID"),
		UserID: r.Header.Get("X-User-ID"),
	}
}

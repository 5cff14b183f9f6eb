package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"console/internal/preference"
)

// ── Preferences ────────────────────────────────────────────

type preferenceBody struct {
	Value string `json:"value"`
}

func (s *Server) preferences(r *http.Request) preference.Store {
	return s.deps.Preferences(chi.URLParam(r, "appID"))
}

func (s *Server) getPreference(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := s.preferences(r).Get(r.Context(), key)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (s *Server) savePreference(w http.ResponseWriter, r *http.Request) {
	var body preferenceBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	key := chi.URLParam(r, "key")
	if err := s.preferences(r).Save(r.Context(), key, body.Value); err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "value": body.Value})
}

// ── Settings ───────────────────────────────────────────────
// Settings are scoped to the calling user (X-User-ID); requests without
// one share the "global" scope.

func settingsScope(r *http.Request) string {
	if user := r.Header.Get("X-User-ID"); user != "" {
		return "user:" + user
	}
	return "global"
}

func (s *Server) listSettings(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Settings.List(r.Context(), settingsScope(r))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (s *Server) getSetting(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Settings.Get(r.Context(), settingsScope(r), chi.URLParam(r, "key"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	var body preferenceBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	st, err := s.deps.Settings.Set(r.Context(), settingsScope(r), chi.URLParam(r, "key"), body.Value)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Settings.Delete(r.Context(), settingsScope(r), chi.URLParam(r, "key")); err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

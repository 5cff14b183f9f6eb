package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"console/internal/domain"
	"console/internal/service"
)

// ── Collections ────────────────────────────────────────────

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Collections.List(r.Context(), appContext(r))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var in service.CollectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	c, err := s.deps.Collections.Create(r.Context(), appContext(r), in)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Collections.Get(r.Context(), appContext(r), chi.URLParam(r, "name"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) updateCollection(w http.ResponseWriter, r *http.Request) {
	var in service.CollectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	c, err := s.deps.Collections.Update(r.Context(), appContext(r), chi.URLParam(r, "name"), in)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Collections.Delete(r.Context(), appContext(r), chi.URLParam(r, "name")); err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) collectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Collections.Stats(r.Context(), appContext(r), chi.URLParam(r, "name"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ── Records ────────────────────────────────────────────────

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Records.List(r.Context(), appContext(r), chi.URLParam(r, "name"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Count: len(items)})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Records.Get(r.Context(), appContext(r), chi.URLParam(r, "name"), chi.URLParam(r, "id"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var data domain.Record
	if err := decodeJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	rec, err := s.deps.Records.Create(r.Context(), appContext(r), chi.URLParam(r, "name"), data)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	var data domain.Record
	if err := decodeJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	rec, err := s.deps.Records.Update(r.Context(), appContext(r), chi.URLParam(r, "name"), chi.URLParam(r, "id"), data)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Records.Delete(r.Context(), appContext(r), chi.URLParam(r, "name"), chi.URLParam(r, "id")); err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) duplicateRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Records.Duplicate(r.Context(), appContext(r), chi.URLParam(r, "name"), chi.URLParam(r, "id"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

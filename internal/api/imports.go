package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"console/internal/etl"
	"console/internal/service"
)

func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.deps.Imports.ListJobs(r.Context(), appContext(r))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: jobs, Count: len(jobs)})
}

func (s *Server) createImport(w http.ResponseWriter, r *http.Request) {
	var in service.ImportJobInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	job, err := s.deps.Imports.CreateJob(r.Context(), appContext(r), in)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	s.deps.Imports.RestartWatchers(r.Context())
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) getImport(w http.ResponseWriter, r *http.Request) {
	job, err := s.deps.Imports.GetJob(r.Context(), appContext(r), chi.URLParam(r, "id"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) updateImport(w http.ResponseWriter, r *http.Request) {
	var in service.ImportJobInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	job, err := s.deps.Imports.UpdateJob(r.Context(), appContext(r), chi.URLParam(r, "id"), in)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	s.deps.Imports.RestartWatchers(r.Context())
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) deleteImport(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Imports.DeleteJob(r.Context(), appContext(r), chi.URLParam(r, "id")); err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	s.deps.Imports.RestartWatchers(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Imports.RunJob(r.Context(), appContext(r), chi.URLParam(r, "id"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) importLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.deps.Imports.ListRunLogs(r.Context(), appContext(r), chi.URLParam(r, "id"))
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: logs, Count: len(logs)})
}

func (s *Server) importSources(w http.ResponseWriter, r *http.Request) {
	sources := s.deps.Imports.ListSources()
	writeJSON(w, http.StatusOK, listResponse{Items: sources, Count: len(sources)})
}

type discoverRequest struct {
	SourceType   string           `json:"sourceType"`
	SourceConfig etl.SourceConfig `json:"sourceConfig"`
}

func (s *Server) discoverImport(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body: "+err.Error())
		return
	}
	if req.SourceType == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "sourceType is required")
		return
	}
	result, err := s.deps.Imports.Discover(r.Context(), req.SourceType, req.SourceConfig)
	if err != nil {
		writeError(w, http.StatusBadRequest, "DISCOVER_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

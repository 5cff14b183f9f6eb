package api

import (
	"net/http"
)

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if s.deps.Uploader == nil {
		writeError(w, http.StatusServiceUnavailable, "UPLOAD_DISABLED", "no upload backend configured")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	url, err := s.deps.Uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		serviceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

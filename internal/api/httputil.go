package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"console/internal/domain"
	"console/internal/preference"
	"console/internal/service"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// listResponse is the envelope of every list endpoint.
type listResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// serviceErrorToHTTP maps service and store errors to HTTP responses.
func serviceErrorToHTTP(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    verr.Error(),
			"code":     "VALIDATION_ERROR",
			"problems": verr.Problems,
		})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, preference.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	default:
		log.Printf("[api] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

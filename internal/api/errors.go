package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skosovsky/promptstash"
)

type errorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps core errors onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var mf *promptstash.MissingFieldsError
	switch {
	case errors.As(err, &mf):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: mf.Error(), Code: "missing_required", Missing: mf.Names})
	case errors.Is(err, promptstash.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "template not found", "not_found")
	case errors.Is(err, promptstash.ErrStorage):
		writeError(w, http.StatusInternalServerError, "storage unavailable", "storage_error")
	default:
		writeError(w, http.StatusInternalServerError, "internal error", "internal_error")
	}
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "bad_request")
		return false
	}
	return true
}

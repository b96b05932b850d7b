package handlers

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, label, message string) {
	respondJSON(w, status, errorResponse{Error: label, Message: message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// NotFound is the JSON 404 handler for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Not Found", "Route "+r.Method+" "+r.URL.Path+" not found")
}

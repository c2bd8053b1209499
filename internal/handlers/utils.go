package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body for requests that succeed with a status line
// rather than a resource.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

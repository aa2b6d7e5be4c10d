package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexhholmes/shelf"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges a write.
type MessageResponse struct {
	Message string `json:"message"`
}

// statusFor maps catalog errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shelf.ErrBookNotFound):
		return http.StatusNotFound
	case errors.Is(err, shelf.ErrBookExists):
		return http.StatusConflict
	case errors.Is(err, shelf.ErrMissingISBN),
		errors.Is(err, shelf.ErrInvalidKey),
		errors.Is(err, shelf.ErrInvalidPage):
		return http.StatusBadRequest
	case errors.Is(err, shelf.ErrDatabaseClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeCatalogError reports err with its mapped status. Internal errors are
// not echoed to the client.
func writeCatalogError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

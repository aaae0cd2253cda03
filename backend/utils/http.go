package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Envelope is the uniform response body of the workspace API
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AuthErrorResponse is the body returned by the authentication gate
type AuthErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK envelope with data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteCreated writes a 201 Created envelope with data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// WriteFailure writes an unsuccessful envelope with the given status
func WriteFailure(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, Envelope{Success: false, Error: message})
}

// WriteBadRequest writes a 400 Bad Request envelope
func WriteBadRequest(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Bad request"
	}
	return WriteFailure(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found envelope
func WriteNotFound(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return WriteFailure(w, http.StatusNotFound, message)
}

// WriteInternalServerError writes a 500 Internal Server Error envelope
func WriteInternalServerError(w http.ResponseWriter, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return WriteFailure(w, http.StatusInternalServerError, message)
}

// WriteAuthError writes an authentication gate error
func WriteAuthError(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, AuthErrorResponse{Error: message})
}

// DecodeJSON decodes a request body into dst. Unknown fields are ignored
// and an empty body leaves dst untouched.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

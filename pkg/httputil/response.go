// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
	"github.com/membertools/dues/pkg/reconciler"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteErrorMessage(w, status, err.Error())
}

// WriteBadRequest writes a validation error response (400 Bad Request)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteInternalError writes an internal server error response (500)
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, err)
}

// WriteCreated writes a successful creation response (201 Created)
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteSuccess writes a successful response (200 OK)
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteServiceError maps the service error taxonomy to HTTP status codes:
// not found 404, already exists 409, invalid input 400, delivery failure
// 502, pass in progress 409, everything else 500 with the cause preserved
// in the body.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, members.ErrNotFound):
		WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, members.ErrAlreadyExists):
		WriteError(w, http.StatusConflict, err)
	case errors.Is(err, members.ErrInvalidInput), errors.Is(err, notify.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err)
	case errors.Is(err, notify.ErrDelivery):
		WriteError(w, http.StatusBadGateway, err)
	case errors.Is(err, reconciler.ErrPassInProgress):
		WriteError(w, http.StatusConflict, err)
	default:
		WriteInternalError(w, err)
	}
}

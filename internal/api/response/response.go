package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/rules"
)

// Response represents a standard API response
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// ListResponse wraps a page of results with its page metadata.
type ListResponse struct {
	Items any             `json:"items"`
	Page  domain.PageInfo `json:"page"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	json.NewEncoder(w).Encode(resp)
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, message any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: false,
		Error:   message,
	}

	json.NewEncoder(w).Encode(resp)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response with data
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// OK sends a 200 OK response with data
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Page sends a 200 OK response with items and page metadata
func Page(w http.ResponseWriter, items any, page domain.PageInfo) {
	OK(w, ListResponse{Items: items, Page: page})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, message any) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(w http.ResponseWriter, message any) {
	Error(w, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 Forbidden response
func Forbidden(w http.ResponseWriter, message any) {
	Error(w, http.StatusForbidden, message)
}

// NotFound sends a 404 Not Found response
func NotFound(w http.ResponseWriter, message any) {
	Error(w, http.StatusNotFound, message)
}

// Conflict sends a 409 Conflict response
func Conflict(w http.ResponseWriter, message any) {
	Error(w, http.StatusConflict, message)
}

// ValidationFailed sends a 422 response with per-field messages
func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	Error(w, http.StatusUnprocessableEntity, map[string]any{"fields": fields})
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter, message any) {
	Error(w, http.StatusInternalServerError, message)
}

// FromError maps a service error onto the wire. Field validation is
// 422, authorization denial 403, missing records 404, illegal state
// transitions 409; anything else is a 500.
func FromError(w http.ResponseWriter, err error) {
	var verr *rules.ValidationError
	if errors.As(err, &verr) {
		ValidationFailed(w, verr.Fields)
		return
	}

	var terr *domain.TransitionError
	if errors.As(err, &terr) {
		Conflict(w, terr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrForbidden):
		Forbidden(w, "not permitted")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "not found")
	default:
		InternalError(w, err.Error())
	}
}

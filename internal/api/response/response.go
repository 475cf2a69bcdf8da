package response

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ramonehamilton/season-engine/internal/apperr"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"` // conflict code, e.g. "sub_budget_exhausted"
	Field   string `json:"field,omitempty"`  // offending input of a validation error
}

// SuccessResponse represents a successful API response with data.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[API] Failed to encode response: %v", err)
		}
	}
}

// Success writes a successful JSON response.
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// Created writes a 201 Created response.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	})
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, err)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, err)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, err error) {
	Error(w, http.StatusInternalServerError, err)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, err error) {
	Error(w, http.StatusTooManyRequests, err)
}

// FromError maps an engine error to its HTTP status: validation errors to
// 400, missing resources to 404, state conflicts and matches without a live
// state to 409. Anything else is logged and reported as 500.
func FromError(w http.ResponseWriter, err error) {
	var (
		validation *apperr.ValidationError
		conflict   *apperr.StateConflictError
	)

	switch {
	case errors.As(err, &validation):
		JSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: err.Error(),
			Code:    http.StatusBadRequest,
			Field:   validation.Field,
		})
	case apperr.IsNotFound(err):
		NotFound(w, err)
	case errors.As(err, &conflict):
		JSON(w, http.StatusConflict, ErrorResponse{
			Error:   http.StatusText(http.StatusConflict),
			Message: err.Error(),
			Code:    http.StatusConflict,
			Reason:  conflict.Code,
		})
	case apperr.IsNoActiveState(err):
		JSON(w, http.StatusConflict, ErrorResponse{
			Error:   http.StatusText(http.StatusConflict),
			Message: err.Error(),
			Code:    http.StatusConflict,
			Reason:  "no_active_state",
		})
	default:
		log.Printf("[API] Internal error: %v", err)
		InternalError(w, err)
	}
}

// internal/app/system/jsonresp/jsonresp.go
package jsonresp

import (
	"net/http"

	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
	"github.com/go-chi/render"
)

// Generic error codes. Tenancy failures carry their own codes
// (see tenancy.Code).
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL"
	CodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error   string                `json:"error"`
	Code    string                `json:"code,omitempty"`
	Details []inputval.FieldError `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// OK writes v with 200.
func OK(w http.ResponseWriter, r *http.Request, v any) {
	JSON(w, r, http.StatusOK, v)
}

// Created writes v with 201.
func Created(w http.ResponseWriter, r *http.Request, v any) {
	JSON(w, r, http.StatusCreated, v)
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	render.NoContent(w, r)
}

// Error writes {error, code}.
func Error(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	JSON(w, r, status, ErrorBody{Error: msg, Code: code})
}

// Invalid writes a 400 with per-field details.
func Invalid(w http.ResponseWriter, r *http.Request, details []inputval.FieldError) {
	JSON(w, r, http.StatusBadRequest, ErrorBody{
		Error:   "invalid request",
		Code:    CodeValidation,
		Details: details,
	})
}

// NotFound writes a 404 with the generic NOT_FOUND code.
func NotFound(w http.ResponseWriter, r *http.Request, what string) {
	Error(w, r, http.StatusNotFound, CodeNotFound, what+" not found")
}

// Internal writes a 500 without leaking the cause; callers log it.
func Internal(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusInternalServerError, CodeInternal, "internal server error")
}

// Unavailable writes a 503 without leaking the cause; callers log it.
func Unavailable(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusServiceUnavailable, CodeUnavailable, "service temporarily unavailable")
}

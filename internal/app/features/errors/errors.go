// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
)

// Handler serves the fallback error endpoints. No DB needed.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Forbidden is where HTML callers land after RequireRole rejects them.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	jsonresp.Error(w, r, http.StatusForbidden, jsonresp.CodeForbidden,
		"You don't have permission to view this page.")
}

// Unauthorized tells the caller where to sign in.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	jsonresp.JSON(w, r, http.StatusUnauthorized, map[string]string{
		"error":     "Please sign in to continue.",
		"code":      jsonresp.CodeUnauthorized,
		"signInUrl": auth.SignInPath,
	})
}

// NotFound is the router's fallback for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonresp.NotFound(w, r, "resource")
}

// MethodNotAllowed is the router's fallback for a known path with the wrong verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonresp.Error(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

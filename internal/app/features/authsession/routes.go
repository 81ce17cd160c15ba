// internal/app/features/authsession/routes.go
package authsession

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /auth/session. The session is already loaded by the
// global LoadSession middleware.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeSignIn)
	r.Get("/", h.ServeCurrent)
	r.Delete("/", h.ServeSignOut)
	return r
}

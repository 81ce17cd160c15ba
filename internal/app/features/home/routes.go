// internal/app/features/home/routes.go
package home

import "github.com/go-chi/chi/v5"

// Routes mounts at "/". Both endpoints are public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRoot)
	r.Get("/sign-in", h.ServeSignIn)
	return r
}

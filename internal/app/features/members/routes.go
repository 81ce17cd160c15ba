// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts membership administration under /members (admin-only).
// Memberships are created by sign-in, never here.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole(models.RoleAdmin))

		pr.Get("/", h.ServeList)
		pr.Patch("/{id}", h.ServeEdit)
	})

	return r
}

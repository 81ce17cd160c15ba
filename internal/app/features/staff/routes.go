// internal/app/features/staff/routes.go
package staff

import (
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /staff. Deleting a profile touches memberships, so it
// is admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/export.csv", h.ServeExport)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.ServeUpdate)
	r.With(sm.RequireRole(models.RoleAdmin)).Delete("/{id}", h.ServeDelete)

	return r
}

// internal/app/features/finances/routes.go
package finances

import (
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /finances. The school's books are admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/summary", h.ServeSummary)
	r.Get("/export.csv", h.ServeExport)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.ServeUpdate)
	r.Delete("/{id}", h.ServeDelete)

	return r
}

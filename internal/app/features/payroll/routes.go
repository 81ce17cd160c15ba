// internal/app/features/payroll/routes.go
package payroll

import (
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /payroll (admin-only). There is no PUT: records are
// corrected by deleting and recreating them.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleAdmin))

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/export.csv", h.ServeExport)
	r.Get("/{id}", h.ServeGet)
	r.Delete("/{id}", h.ServeDelete)

	return r
}

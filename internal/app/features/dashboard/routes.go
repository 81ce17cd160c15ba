// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard feature under "/dashboard". Every role sees
// the same school-wide summary.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeDashboard)
	})
	return r
}

// internal/app/features/staff/export.go
package staff

import (
	"net/http"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	"github.com/dalemusser/schoolsuite/internal/app/system/csvutil"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var exportHeader = []string{
	"full_name", "email", "phone", "position", "department", "hire_date", "status",
}

// ServeExport handles GET /staff/export.csv.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.Log, "export staff")
	defer cancel()

	items, err := h.Staff.List(ctx, s.SchoolID(), "", 0)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export staff", err)
		return
	}

	cw := csvutil.NewExport(w, csvutil.Filename("staff", time.Now()))
	_ = cw.Write(exportHeader)
	for _, st := range items {
		_ = cw.Write(csvutil.Cells(
			st.FullName, st.Email, st.Phone, st.Position, st.Department, st.HireDate, st.Status,
		))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("staff export write failed", zap.Error(err))
	}
}

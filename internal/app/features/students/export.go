// internal/app/features/students/export.go
package students

import (
	"net/http"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	"github.com/dalemusser/schoolsuite/internal/app/system/csvutil"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var exportHeader = []string{
	"admission_no", "first_name", "last_name", "class_name", "date_of_birth",
	"guardian_name", "guardian_phone", "status", "created_at",
}

// ServeExport handles GET /students/export.csv.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.Log, "export students")
	defer cancel()

	items, err := h.Students.List(ctx, s.SchoolID(), "", 0)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export students", err)
		return
	}

	cw := csvutil.NewExport(w, csvutil.Filename("students", time.Now()))
	_ = cw.Write(exportHeader)
	for _, st := range items {
		row := csvutil.Cells(
			st.AdmissionNo, st.FirstName, st.LastName, st.ClassName, st.DateOfBirth,
			st.GuardianName, st.GuardianPhone, st.Status,
		)
		_ = cw.Write(append(row, csvutil.Date(st.CreatedAt)))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("students export write failed", zap.Error(err))
	}
}

// internal/app/features/finances/export.go
package finances

import (
	"net/http"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	"github.com/dalemusser/schoolsuite/internal/app/system/csvutil"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var exportHeader = []string{"date", "type", "category", "amount", "description"}

// ServeExport handles GET /finances/export.csv. Rows are in date order.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.Log, "export finances")
	defer cancel()

	items, err := h.Entries.ListAll(ctx, s.SchoolID())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export finances", err)
		return
	}

	cw := csvutil.NewExport(w, csvutil.Filename("finances", time.Now()))
	_ = cw.Write(exportHeader)
	for _, e := range items {
		_ = cw.Write([]string{
			e.Date,
			e.Type,
			csvutil.Cell(e.Category),
			csvutil.Int(e.Amount),
			csvutil.Cell(e.Description),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("finance export write failed", zap.Error(err))
	}
}

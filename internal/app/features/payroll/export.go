// internal/app/features/payroll/export.go
package payroll

import (
	"net/http"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	"github.com/dalemusser/schoolsuite/internal/app/system/csvutil"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.uber.org/zap"
)

var exportHeader = []string{
	"period", "staff_name", "gross_pay", "allowances", "total_allowance",
	"deductions", "total_deduction", "net_pay",
}

// ServeExport handles GET /payroll/export.csv. Item lists are written as
// "Label:Amount" joined with "; ".
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Export(), h.Log, "export payroll")
	defer cancel()

	items, err := h.Records.ListAll(ctx, s.SchoolID())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "export payroll", err)
		return
	}

	cw := csvutil.NewExport(w, csvutil.Filename("payroll", time.Now()))
	_ = cw.Write(exportHeader)
	for _, p := range items {
		_ = cw.Write([]string{
			p.Period,
			csvutil.Cell(p.StaffName),
			csvutil.Int(p.GrossPay),
			csvutil.Cell(itemList(p.Allowances)),
			csvutil.Int(p.TotalAllowance),
			csvutil.Cell(itemList(p.Deductions)),
			csvutil.Int(p.TotalDeduction),
			csvutil.Int(p.NetPay),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("payroll export write failed", zap.Error(err))
	}
}

func itemList(items []models.PayItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, it.Label+":"+csvutil.Int(it.Amount))
	}
	return csvutil.Join(parts)
}

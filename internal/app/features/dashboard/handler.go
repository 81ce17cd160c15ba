// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	financestore "github.com/dalemusser/schoolsuite/internal/app/store/finances"
	metricsstore "github.com/dalemusser/schoolsuite/internal/app/store/metrics"
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/ledger"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Finances *financestore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		Finances: financestore.New(db),
	}
}

type dashboardResponse struct {
	School  models.School       `json:"school"`
	Counts  metricsstore.Counts `json:"counts"`
	Totals  financestore.Totals `json:"totals"`
	Monthly []ledger.MonthTotal `json:"monthly"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard                                                               |
| Record counts, financial totals and the 12-month overview for the school.    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	s, dest := auth.Guard(r, false)
	if s == nil {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}
	schoolID := s.SchoolID()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "dashboard")
	defer cancel()

	counts, err := metricsstore.FetchSchoolCounts(ctx, h.DB, schoolID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard counts", err)
		return
	}
	totals, err := h.Finances.Totals(ctx, schoolID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard totals", err)
		return
	}
	entries, err := h.Finances.ListAll(ctx, schoolID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard entries", err)
		return
	}

	monthly := ledger.MonthlyOverview(entries)
	if monthly == nil {
		monthly = []ledger.MonthTotal{}
	}

	h.Log.Debug("dashboard served",
		zap.String("school_id", schoolID.Hex()),
		zap.Int("entries", len(entries)))

	jsonresp.OK(w, r, dashboardResponse{
		School:  s.School,
		Counts:  counts,
		Totals:  totals,
		Monthly: monthly,
	})
}

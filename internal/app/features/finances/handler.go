// internal/app/features/finances/handler.go
package finances

import (
	"net/http"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	financestore "github.com/dalemusser/schoolsuite/internal/app/store/finances"
	"github.com/dalemusser/schoolsuite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/app/system/paging"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Entries *financestore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		ErrLog:  errLog,
		Entries: financestore.New(db),
	}
}

// Amounts are whole minor units (kobo, cents).
type entryInput struct {
	Type        string `json:"type" validate:"required,oneof=income expense"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Date        string `json:"date" validate:"required,yyyymmdd"`
	Category    string `json:"category" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

func (in entryInput) model() models.FinancialEntry {
	return models.FinancialEntry{
		Type:        in.Type,
		Amount:      in.Amount,
		Date:        in.Date,
		Category:    normalize.Name(in.Category),
		Description: htmlsanitize.Text(in.Description),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /finances                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	limit := paging.ParseLimit(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list finances")
	defer cancel()

	items, err := h.Entries.List(ctx, s.SchoolID(), query.Get(r, "q"), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list finances", err)
		return
	}
	shared.List(w, r, items, limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /finances/summary                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSummary returns the school-wide income, expense and balance.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "finance totals")
	defer cancel()

	totals, err := h.Entries.Totals(ctx, s.SchoolID())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "finance totals", err)
		return
	}
	jsonresp.OK(w, r, totals)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /finances                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	var in entryInput
	if !shared.Decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create financial entry")
	defer cancel()

	e := in.model()
	e.SchoolID = s.SchoolID()
	created, err := h.Entries.Create(ctx, e)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create financial entry", err)
		return
	}
	jsonresp.Created(w, r, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /finances/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "financial entry")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get financial entry")
	defer cancel()

	e, err := h.Entries.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "financial entry", "get financial entry", err)
		return
	}
	jsonresp.OK(w, r, e)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /finances/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "financial entry")
	if !ok {
		return
	}
	var in entryInput
	if !shared.Decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update financial entry")
	defer cancel()

	updated, err := h.Entries.Update(ctx, s.SchoolID(), id, in.model())
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "financial entry", "update financial entry", err)
		return
	}
	jsonresp.OK(w, r, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /finances/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "financial entry")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete financial entry")
	defer cancel()

	n, err := h.Entries.Delete(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete financial entry", err)
		return
	}
	if n == 0 {
		jsonresp.NotFound(w, r, "financial entry")
		return
	}
	h.Log.Info("financial entry deleted",
		zap.String("entry_id", id.Hex()),
		zap.String("school_id", s.SchoolID().Hex()),
		zap.String("actor", s.Membership.ID.Hex()))
	jsonresp.NoContent(w, r)
}

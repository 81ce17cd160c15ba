// internal/app/features/payroll/handler.go
package payroll

import (
	"errors"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	payrollstore "github.com/dalemusser/schoolsuite/internal/app/store/payroll"
	staffstore "github.com/dalemusser/schoolsuite/internal/app/store/staff"
	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/paging"
	"github.com/dalemusser/schoolsuite/internal/app/system/payrollcalc"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CodeStaffNotFound is returned when a payroll record names a staff profile
// that is not in the school.
const CodeStaffNotFound = "STAFF_NOT_FOUND"

type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Records *payrollstore.Store
	Staff   *staffstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		ErrLog:  errLog,
		Records: payrollstore.New(db),
		Staff:   staffstore.New(db),
	}
}

// Allowances and deductions are free text, one "Label:Amount" per line.
type payrollInput struct {
	StaffID    string `json:"staffId" validate:"required"`
	Period     string `json:"period" validate:"required,yyyymm"`
	GrossPay   *int64 `json:"grossPay" validate:"required,gte=0"`
	Allowances string `json:"allowances" validate:"max=4000"`
	Deductions string `json:"deductions" validate:"max=4000"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /payroll                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	limit := paging.ParseLimit(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list payroll")
	defer cancel()

	items, err := h.Records.List(ctx, s.SchoolID(), query.Get(r, "q"), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list payroll", err)
		return
	}
	shared.List(w, r, items, limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /payroll                                                                |
| Net pay is computed here and stored; a record is never edited afterwards.    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	var in payrollInput
	if !shared.Decode(w, r, &in) {
		return
	}
	staffID, err := primitive.ObjectIDFromHex(in.StaffID)
	if err != nil {
		jsonresp.Invalid(w, r, inputval.Field("staffId", "staffId is not a valid id"))
		return
	}

	b, err := payrollcalc.Compute(*in.GrossPay, in.Allowances, in.Deductions)
	if err != nil {
		var le *payrollcalc.ItemizedLineError
		if errors.As(err, &le) {
			jsonresp.Invalid(w, r, inputval.Field(le.Field,
				fmt.Sprintf("line %d %q: %s", le.Line, le.Text, le.Reason)))
			return
		}
		h.ErrLog.LogServerError(w, r, "compute payroll", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create payroll record")
	defer cancel()

	st, err := h.Staff.GetByID(ctx, s.SchoolID(), staffID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.Error(w, r, http.StatusNotFound, CodeStaffNotFound, "staff profile not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load staff for payroll", err)
		return
	}

	created, err := h.Records.Create(ctx, models.PayrollRecord{
		SchoolID:       s.SchoolID(),
		StaffID:        st.ID,
		StaffName:      st.FullName,
		Period:         in.Period,
		GrossPay:       *in.GrossPay,
		Allowances:     b.Allowances,
		Deductions:     b.Deductions,
		TotalAllowance: b.TotalAllowance,
		TotalDeduction: b.TotalDeduction,
		NetPay:         b.NetPay,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create payroll record", err)
		return
	}
	jsonresp.Created(w, r, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /payroll/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "payroll record")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get payroll record")
	defer cancel()

	p, err := h.Records.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "payroll record", "get payroll record", err)
		return
	}
	jsonresp.OK(w, r, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /payroll/{id}                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "payroll record")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete payroll record")
	defer cancel()

	n, err := h.Records.Delete(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete payroll record", err)
		return
	}
	if n == 0 {
		jsonresp.NotFound(w, r, "payroll record")
		return
	}
	h.Log.Info("payroll record deleted",
		zap.String("record_id", id.Hex()),
		zap.String("school_id", s.SchoolID().Hex()),
		zap.String("actor", s.Membership.ID.Hex()))
	jsonresp.NoContent(w, r)
}

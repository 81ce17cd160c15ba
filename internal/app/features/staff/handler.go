// internal/app/features/staff/handler.go
package staff

// Terminology: Staff vs Membership
//   - Staff profile: the HR record kept under /staff
//   - Membership: a Google account's access to the school; may link one staff profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	staffstore "github.com/dalemusser/schoolsuite/internal/app/store/staff"
	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/app/system/paging"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Transactor runs fn as one atomic unit when the database allows it.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type Handler struct {
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	AuditLog    *auditlog.Logger
	Tx          Transactor
	Staff       *staffstore.Store
	Memberships *membershipstore.Store
}

func NewHandler(db *mongo.Database, tx Transactor, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		ErrLog:      errLog,
		AuditLog:    audit,
		Tx:          tx,
		Staff:       staffstore.New(db),
		Memberships: membershipstore.New(db),
	}
}

type staffInput struct {
	FullName   string `json:"fullName" validate:"required,notblank,max=200"`
	Email      string `json:"email" validate:"omitempty,email,max=320"`
	Phone      string `json:"phone" validate:"max=50"`
	Position   string `json:"position" validate:"required,notblank,max=100"`
	Department string `json:"department" validate:"max=100"`
	HireDate   string `json:"hireDate" validate:"yyyymmdd"`
	Status     string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (in staffInput) model() models.Staff {
	st := models.Staff{
		FullName:   normalize.Name(in.FullName),
		Email:      normalize.Email(in.Email),
		Phone:      normalize.Name(in.Phone),
		Position:   normalize.Name(in.Position),
		Department: normalize.Name(in.Department),
		HireDate:   in.HireDate,
		Status:     normalize.Status(in.Status),
	}
	if st.Status == "" {
		st.Status = "active"
	}
	return st
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /staff                                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	limit := paging.ParseLimit(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list staff")
	defer cancel()

	items, err := h.Staff.List(ctx, s.SchoolID(), query.Get(r, "q"), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list staff", err)
		return
	}
	shared.List(w, r, items, limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /staff                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	var in staffInput
	if !shared.Decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create staff")
	defer cancel()

	st := in.model()
	st.SchoolID = s.SchoolID()
	created, err := h.Staff.Create(ctx, st)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create staff", err)
		return
	}
	jsonresp.Created(w, r, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /staff/{id}                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "staff profile")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get staff")
	defer cancel()

	st, err := h.Staff.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "staff profile", "get staff", err)
		return
	}
	jsonresp.OK(w, r, st)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /staff/{id}                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "staff profile")
	if !ok {
		return
	}
	var in staffInput
	if !shared.Decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update staff")
	defer cancel()

	updated, err := h.Staff.Update(ctx, s.SchoolID(), id, in.model())
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "staff profile", "update staff", err)
		return
	}
	jsonresp.OK(w, r, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /staff/{id}  (admin)                                                  |
| Removes the profile and unsets staff_id on every membership linked to it.    |
| Memberships themselves are never deleted here.                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "staff profile")
	if !ok {
		return
	}
	schoolID := s.SchoolID()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete staff")
	defer cancel()

	st, err := h.Staff.GetByID(ctx, schoolID, id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "staff profile", "load staff for delete", err)
		return
	}

	var deleted, unlinked int64
	err = h.Tx.Run(ctx, func(ctx context.Context) error {
		var err error
		if deleted, err = h.Staff.Delete(ctx, schoolID, id); err != nil || deleted == 0 {
			return err
		}
		unlinked, err = h.Memberships.UnlinkStaff(ctx, schoolID, id)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete staff", err)
		return
	}
	if deleted == 0 {
		jsonresp.NotFound(w, r, "staff profile")
		return
	}

	h.Log.Info("staff profile deleted",
		zap.String("staff_id", id.Hex()),
		zap.String("school_id", schoolID.Hex()),
		zap.Int64("memberships_unlinked", unlinked))
	h.AuditLog.StaffDeleted(ctx, r, s.Membership.ID, schoolID, id, st.FullName, unlinked)
	jsonresp.NoContent(w, r)
}

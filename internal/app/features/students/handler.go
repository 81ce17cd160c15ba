// internal/app/features/students/handler.go
package students

import (
	"net/http"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	studentstore "github.com/dalemusser/schoolsuite/internal/app/store/students"
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

type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
	Students *studentstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Students: studentstore.New(db),
	}
}

// studentInput is the create/update body.
type studentInput struct {
	FirstName     string `json:"firstName" validate:"required,notblank,max=100"`
	LastName      string `json:"lastName" validate:"required,notblank,max=100"`
	AdmissionNo   string `json:"admissionNo" validate:"max=50"`
	ClassName     string `json:"className" validate:"max=50"`
	GuardianName  string `json:"guardianName" validate:"max=200"`
	GuardianPhone string `json:"guardianPhone" validate:"max=50"`
	DateOfBirth   string `json:"dateOfBirth" validate:"yyyymmdd"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (in studentInput) model() models.Student {
	return models.Student{
		FirstName:     normalize.Name(in.FirstName),
		LastName:      normalize.Name(in.LastName),
		AdmissionNo:   normalize.Name(in.AdmissionNo),
		ClassName:     normalize.Name(in.ClassName),
		GuardianName:  normalize.Name(in.GuardianName),
		GuardianPhone: normalize.Name(in.GuardianPhone),
		DateOfBirth:   in.DateOfBirth,
		Status:        normalize.Status(in.Status),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /students                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	limit := paging.ParseLimit(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list students")
	defer cancel()

	items, err := h.Students.List(ctx, s.SchoolID(), query.Get(r, "q"), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list students", err)
		return
	}
	shared.List(w, r, items, limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /students                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	var in studentInput
	if !shared.Decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create student")
	defer cancel()

	st := in.model()
	st.SchoolID = s.SchoolID()
	created, err := h.Students.Create(ctx, st)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create student", err)
		return
	}
	jsonresp.Created(w, r, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /students/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "student")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get student")
	defer cancel()

	st, err := h.Students.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "student", "get student", err)
		return
	}
	jsonresp.OK(w, r, st)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /students/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "student")
	if !ok {
		return
	}
	var in studentInput
	if !shared.Decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update student")
	defer cancel()

	st := in.model()
	if st.Status == "" {
		st.Status = "active"
	}
	updated, err := h.Students.Update(ctx, s.SchoolID(), id, st)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "student", "update student", err)
		return
	}
	jsonresp.OK(w, r, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /students/{id}                                                        |
| Deletes only the student; performance records keep their snapshot name.     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "student")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete student")
	defer cancel()

	st, err := h.Students.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "student", "load student for delete", err)
		return
	}
	n, err := h.Students.Delete(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete student", err)
		return
	}
	if n == 0 {
		jsonresp.NotFound(w, r, "student")
		return
	}

	h.AuditLog.StudentDeleted(ctx, r, s.Membership.ID, s.SchoolID(), id, st.FullName())
	jsonresp.NoContent(w, r)
}

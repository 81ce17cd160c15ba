// internal/app/features/performance/handler.go
package performance

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	performancestore "github.com/dalemusser/schoolsuite/internal/app/store/performance"
	studentstore "github.com/dalemusser/schoolsuite/internal/app/store/students"
	"github.com/dalemusser/schoolsuite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/app/system/paging"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CodeStudentNotFound is returned when a record names a student that is not
// in the school.
const CodeStudentNotFound = "STUDENT_NOT_FOUND"

type Handler struct {
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	Records  *performancestore.Store
	Students *studentstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:      logger,
		ErrLog:   errLog,
		Records:  performancestore.New(db),
		Students: studentstore.New(db),
	}
}

// StudentID is read on create only; the student link never changes.
type recordInput struct {
	StudentID string   `json:"studentId"`
	Subject   string   `json:"subject" validate:"required,notblank,max=100"`
	Term      string   `json:"term" validate:"required,notblank,max=50"`
	Score     *float64 `json:"score" validate:"required,gte=0"`
	MaxScore  float64  `json:"maxScore" validate:"required,gt=0"`
	Remarks   string   `json:"remarks" validate:"max=2000"`
}

func decode(w http.ResponseWriter, r *http.Request) (recordInput, models.PerformanceRecord, bool) {
	var in recordInput
	if !shared.Decode(w, r, &in) {
		return in, models.PerformanceRecord{}, false
	}
	if *in.Score > in.MaxScore {
		jsonresp.Invalid(w, r, inputval.Field("score", "score cannot exceed maxScore"))
		return in, models.PerformanceRecord{}, false
	}
	return in, models.PerformanceRecord{
		Subject:  normalize.Name(in.Subject),
		Term:     normalize.Name(in.Term),
		Score:    *in.Score,
		MaxScore: in.MaxScore,
		Remarks:  htmlsanitize.Text(in.Remarks),
	}, true
}

// recordView adds the derived percentage to a stored record.
type recordView struct {
	models.PerformanceRecord
	Percent float64 `json:"percent"`
}

func view(p models.PerformanceRecord) recordView {
	return recordView{PerformanceRecord: p, Percent: p.Percent()}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /performance?q=&studentId=                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	f := performancestore.Filter{Query: query.Get(r, "q"), Limit: paging.ParseLimit(r)}
	if raw := query.Get(r, "studentId"); raw != "" {
		sid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			jsonresp.Invalid(w, r, inputval.Field("studentId", "studentId is not a valid id"))
			return
		}
		f.StudentID = &sid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list performance")
	defer cancel()

	items, err := h.Records.List(ctx, s.SchoolID(), f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list performance", err)
		return
	}
	views := make([]recordView, 0, len(items))
	for _, p := range items {
		views = append(views, view(p))
	}
	shared.List(w, r, views, f.Limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /performance                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	in, p, ok := decode(w, r)
	if !ok {
		return
	}
	studentID, err := primitive.ObjectIDFromHex(in.StudentID)
	if err != nil {
		jsonresp.Invalid(w, r, inputval.Field("studentId", "studentId is required and must be a valid id"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create performance record")
	defer cancel()

	st, err := h.Students.GetByID(ctx, s.SchoolID(), studentID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.Error(w, r, http.StatusNotFound, CodeStudentNotFound, "student not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load student for performance", err)
		return
	}

	p.SchoolID = s.SchoolID()
	p.StudentID = st.ID
	p.StudentName = st.FullName()
	created, err := h.Records.Create(ctx, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create performance record", err)
		return
	}
	jsonresp.Created(w, r, view(created))
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /performance/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "performance record")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get performance record")
	defer cancel()

	p, err := h.Records.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "performance record", "get performance record", err)
		return
	}
	jsonresp.OK(w, r, view(p))
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /performance/{id}                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "performance record")
	if !ok {
		return
	}
	_, p, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update performance record")
	defer cancel()

	updated, err := h.Records.Update(ctx, s.SchoolID(), id, p)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "performance record", "update performance record", err)
		return
	}
	jsonresp.OK(w, r, view(updated))
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /performance/{id}                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "performance record")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete performance record")
	defer cancel()

	n, err := h.Records.Delete(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete performance record", err)
		return
	}
	if n == 0 {
		jsonresp.NotFound(w, r, "performance record")
		return
	}
	jsonresp.NoContent(w, r)
}

// internal/app/features/questions/handler.go
package questions

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	questionstore "github.com/dalemusser/schoolsuite/internal/app/store/questions"
	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
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
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
	Questions *questionstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:       logger,
		ErrLog:    errLog,
		Questions: questionstore.New(db),
	}
}

type questionInput struct {
	Subject    string   `json:"subject" validate:"required,notblank,max=100"`
	Topic      string   `json:"topic" validate:"max=200"`
	Prompt     string   `json:"prompt" validate:"required,notblank,max=4000"`
	Options    []string `json:"options" validate:"max=10,dive,notblank,max=500"`
	Answer     string   `json:"answer" validate:"required,notblank,max=2000"`
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// decode validates the body. For multiple-choice items the answer must be
// one of the options (compared after trimming, case-insensitively).
func decode(w http.ResponseWriter, r *http.Request) (models.Question, bool) {
	var in questionInput
	if !shared.Decode(w, r, &in) {
		return models.Question{}, false
	}
	q := models.Question{
		Subject:    normalize.Name(in.Subject),
		Topic:      normalize.Name(in.Topic),
		Prompt:     strings.TrimSpace(in.Prompt),
		Answer:     strings.TrimSpace(in.Answer),
		Difficulty: in.Difficulty,
	}
	for _, o := range in.Options {
		q.Options = append(q.Options, strings.TrimSpace(o))
	}
	if len(q.Options) > 0 && !hasOption(q.Options, q.Answer) {
		jsonresp.Invalid(w, r, inputval.Field("answer", "answer must be one of the options"))
		return models.Question{}, false
	}
	return q, true
}

func hasOption(options []string, answer string) bool {
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return true
		}
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /questions?q=<subject prefix>                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	limit := paging.ParseLimit(r)
	subject := query.Get(r, "q")
	if subject == "" {
		subject = query.Get(r, "subject")
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list questions")
	defer cancel()

	items, err := h.Questions.List(ctx, s.SchoolID(), subject, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list questions", err)
		return
	}
	shared.List(w, r, items, limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /questions                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	q, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create question")
	defer cancel()

	q.SchoolID = s.SchoolID()
	created, err := h.Questions.Create(ctx, q)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create question", err)
		return
	}
	jsonresp.Created(w, r, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /questions/{id}                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "question")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get question")
	defer cancel()

	q, err := h.Questions.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "question", "get question", err)
		return
	}
	jsonresp.OK(w, r, q)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /questions/{id}                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "question")
	if !ok {
		return
	}
	q, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update question")
	defer cancel()

	updated, err := h.Questions.Update(ctx, s.SchoolID(), id, q)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "question", "update question", err)
		return
	}
	jsonresp.OK(w, r, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /questions/{id}                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "question")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete question")
	defer cancel()

	n, err := h.Questions.Delete(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete question", err)
		return
	}
	if n == 0 {
		jsonresp.NotFound(w, r, "question")
		return
	}
	jsonresp.NoContent(w, r)
}

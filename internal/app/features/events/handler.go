// internal/app/features/events/handler.go
package events

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	eventstore "github.com/dalemusser/schoolsuite/internal/app/store/events"
	"github.com/dalemusser/schoolsuite/internal/app/system/htmlsanitize"
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
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Events *eventstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
		Events: eventstore.New(db),
	}
}

type eventInput struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	StartsAt    string `json:"startsAt" validate:"required,rfc3339"`
	EndsAt      string `json:"endsAt" validate:"rfc3339"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"max=10000"`
}

// model converts the input once validation has passed. The time layouts
// were checked by the rfc3339 tag, so only the ordering can fail here.
func (in eventInput) model() (models.Event, inputval.Errors) {
	starts, _ := time.Parse(time.RFC3339, in.StartsAt)
	e := models.Event{
		Title:       normalize.Name(in.Title),
		StartsAt:    starts,
		Location:    normalize.Name(in.Location),
		Description: htmlsanitize.Sanitize(in.Description),
	}
	if in.EndsAt != "" {
		ends, _ := time.Parse(time.RFC3339, in.EndsAt)
		if ends.Before(starts) {
			return models.Event{}, inputval.Field("endsAt", "endsAt must not be before startsAt")
		}
		e.EndsAt = &ends
	}
	return e, nil
}

// decode reads and validates the body, writing the 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request) (models.Event, bool) {
	var in eventInput
	if !shared.Decode(w, r, &in) {
		return models.Event{}, false
	}
	e, fe := in.model()
	if fe != nil {
		jsonresp.Invalid(w, r, fe)
		return models.Event{}, false
	}
	return e, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /events                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	limit := paging.ParseLimit(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list events")
	defer cancel()

	items, err := h.Events.List(ctx, s.SchoolID(), query.Get(r, "q"), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list events", err)
		return
	}
	shared.List(w, r, items, limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /events                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	e, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create event")
	defer cancel()

	e.SchoolID = s.SchoolID()
	created, err := h.Events.Create(ctx, e)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create event", err)
		return
	}
	jsonresp.Created(w, r, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /events/{id}                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "event")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get event")
	defer cancel()

	e, err := h.Events.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "event", "get event", err)
		return
	}
	jsonresp.OK(w, r, e)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /events/{id}                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "event")
	if !ok {
		return
	}
	e, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update event")
	defer cancel()

	updated, err := h.Events.Update(ctx, s.SchoolID(), id, e)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "event", "update event", err)
		return
	}
	jsonresp.OK(w, r, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /events/{id}                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "event")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete event")
	defer cancel()

	n, err := h.Events.Delete(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete event", err)
		return
	}
	if n == 0 {
		jsonresp.NotFound(w, r, "event")
		return
	}
	jsonresp.NoContent(w, r)
}

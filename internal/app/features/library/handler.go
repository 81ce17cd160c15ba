// internal/app/features/library/handler.go
package library

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/shared"
	librarystore "github.com/dalemusser/schoolsuite/internal/app/store/library"
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
	Assets *librarystore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
		Assets: librarystore.New(db),
	}
}

// Available defaults to Copies when omitted.
type assetInput struct {
	Title     string `json:"title" validate:"required,notblank,max=300"`
	Author    string `json:"author" validate:"max=200"`
	ISBN      string `json:"isbn" validate:"max=20"`
	Category  string `json:"category" validate:"max=100"`
	Copies    int    `json:"copies" validate:"gte=0"`
	Available *int   `json:"available" validate:"omitempty,gte=0"`
}

func decode(w http.ResponseWriter, r *http.Request) (models.LibraryAsset, bool) {
	var in assetInput
	if !shared.Decode(w, r, &in) {
		return models.LibraryAsset{}, false
	}
	available := in.Copies
	if in.Available != nil {
		available = *in.Available
	}
	if available > in.Copies {
		jsonresp.Invalid(w, r, inputval.Field("available", "available cannot exceed copies"))
		return models.LibraryAsset{}, false
	}
	return models.LibraryAsset{
		Title:     normalize.Name(in.Title),
		Author:    normalize.Name(in.Author),
		ISBN:      strings.ReplaceAll(strings.TrimSpace(in.ISBN), " ", ""),
		Category:  normalize.Name(in.Category),
		Copies:    in.Copies,
		Available: available,
	}, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /library                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	limit := paging.ParseLimit(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list library")
	defer cancel()

	items, err := h.Assets.List(ctx, s.SchoolID(), query.Get(r, "q"), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list library", err)
		return
	}
	shared.List(w, r, items, limit)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /library                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	a, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create library asset")
	defer cancel()

	a.SchoolID = s.SchoolID()
	created, err := h.Assets.Create(ctx, a)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create library asset", err)
		return
	}
	jsonresp.Created(w, r, created)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /library/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "library asset")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get library asset")
	defer cancel()

	a, err := h.Assets.GetByID(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "library asset", "get library asset", err)
		return
	}
	jsonresp.OK(w, r, a)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /library/{id}                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "library asset")
	if !ok {
		return
	}
	a, ok := decode(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update library asset")
	defer cancel()

	updated, err := h.Assets.Update(ctx, s.SchoolID(), id, a)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "library asset", "update library asset", err)
		return
	}
	jsonresp.OK(w, r, updated)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /library/{id}                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := shared.Session(w, r)
	if !ok {
		return
	}
	id, ok := shared.IDParam(w, r, "library asset")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete library asset")
	defer cancel()

	n, err := h.Assets.Delete(ctx, s.SchoolID(), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete library asset", err)
		return
	}
	if n == 0 {
		jsonresp.NotFound(w, r, "library asset")
		return
	}
	jsonresp.NoContent(w, r)
}

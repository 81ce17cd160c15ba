// internal/app/features/shared/shared.go
package shared

import (
	"net/http"

	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/inputval"
	"github.com/dalemusser/schoolsuite/internal/app/system/jsonresp"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session returns the signed-in session, writing a 401 when there is none.
// Record routes sit behind RequireSignedIn, so a miss means the handler
// was mounted without it.
func Session(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	s, ok := auth.CurrentSession(r)
	if !ok {
		jsonresp.Error(w, r, http.StatusUnauthorized, jsonresp.CodeUnauthorized, "not signed in")
		return nil, false
	}
	return s, true
}

// IDParam parses the {id} URL parameter. A malformed id cannot name any
// record, so it gets the same 404 as a missing one.
func IDParam(w http.ResponseWriter, r *http.Request, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.NotFound(w, r, what)
		return primitive.NilObjectID, false
	}
	return id, true
}

// Decode reads and validates a JSON body into v, writing a 400 with
// per-field details when it fails.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := inputval.Decode(r, v)
	if err == nil {
		return true
	}
	fe, ok := inputval.AsErrors(err)
	if !ok {
		fe = inputval.Field("body", err.Error())
	}
	jsonresp.Invalid(w, r, fe)
	return false
}

// ListResponse is the body of every list endpoint.
type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Limit int64 `json:"limit"`
}

// List writes items (never null) with the limit that produced them.
func List[T any](w http.ResponseWriter, r *http.Request, items []T, limit int64) {
	if items == nil {
		items = []T{}
	}
	jsonresp.OK(w, r, ListResponse[T]{Items: items, Limit: limit})
}

package library_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/library"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/schoolsuite/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*library.Handler, models.School) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := testutil.NewFixtures(t, db).CreateSchool(ctx, "Hillside", "hillside.edu")
	return library.NewHandler(db, uierrors.NewErrorLogger(logger), logger), school
}

func call(fn http.HandlerFunc, school models.School, method, body, id string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(method, "/library", body)
	if id != "" {
		req = testutil.WithChiURLParam(req, "id", id)
	}
	rec := httptest.NewRecorder()
	fn(rec, testutil.WithSession(req, testutil.StaffSession(school)))
	return rec
}

func TestCreate_AvailableDefaultsToCopies(t *testing.T) {
	h, school := setup(t)
	rec := call(h.ServeCreate, school, "POST", `{"title":"Things Fall Apart","author":"Chinua Achebe","copies":4}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got models.LibraryAsset
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Available != 4 {
		t.Errorf("available = %d, want 4", got.Available)
	}
}

func TestCreate_AvailableBounds(t *testing.T) {
	h, school := setup(t)
	for _, body := range []string{
		`{"title":"Arrow of God","copies":2,"available":3}`,
		`{"title":"Arrow of God","copies":2,"available":-1}`,
		`{"title":"Arrow of God","copies":-2}`,
	} {
		if rec := call(h.ServeCreate, school, "POST", body, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestUpdateAndDelete(t *testing.T) {
	h, school := setup(t)
	rec := call(h.ServeCreate, school, "POST", `{"title":"Arrow of God","copies":2}`, "")
	var created models.LibraryAsset
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = call(h.ServeUpdate, school, "PUT", `{"title":"Arrow of God","copies":3,"available":1}`, created.ID.Hex())
	var got models.LibraryAsset
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if rec.Code != http.StatusOK || got.Copies != 3 || got.Available != 1 {
		t.Errorf("update: %d %+v", rec.Code, got)
	}

	if rec = call(h.ServeDelete, school, "DELETE", "", created.ID.Hex()); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec = call(h.ServeGet, school, "GET", "", created.ID.Hex()); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

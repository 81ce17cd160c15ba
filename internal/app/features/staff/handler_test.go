package staff_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/staff"
	"github.com/dalemusser/schoolsuite/internal/app/store/audit"
	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/txn"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/schoolsuite/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	h      *staff.Handler
	db     *mongo.Database
	school models.School
	admin  models.Membership
	fx     *testutil.Fixtures
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	al := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.DB, Admin: auditlog.DB})
	h := staff.NewHandler(db, txn.New(db.Client(), logger), uierrors.NewErrorLogger(logger), al, logger)

	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := fx.CreateSchool(ctx, "Hillside", "hillside.edu")
	admin := fx.CreateMembership(ctx, school, "uid-admin", "head@hillside.edu", models.RoleAdmin)

	return env{h: h, db: db, school: school, admin: admin, fx: fx}
}

func (e env) do(fn http.HandlerFunc, method, target, body, id string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(method, target, body)
	if id != "" {
		req = testutil.WithChiURLParam(req, "id", id)
	}
	rec := httptest.NewRecorder()
	fn(rec, testutil.WithSession(req, testutil.SessionFor(e.school, e.admin)))
	return rec
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	rec := e.do(e.h.ServeCreate, "POST", "/staff",
		`{"fullName":"Grace  Hopper","email":"GRACE@Hillside.edu","position":"Bursar","hireDate":"2019-09-01"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got models.Staff
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Email != "grace@hillside.edu" || got.Status != "active" || got.SchoolID != e.school.ID {
		t.Errorf("created = %+v", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)
	rec := e.do(e.h.ServeCreate, "POST", "/staff", `{"fullName":"Grace","email":"nope","hireDate":"2019/09/01"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, field := range []string{`"position"`, `"email"`, `"hireDate"`} {
		if !strings.Contains(rec.Body.String(), field) {
			t.Errorf("missing detail for %s: %s", field, rec.Body.String())
		}
	}
}

func TestList_Search(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateStaff(ctx, e.school, "Grace Hopper", "Bursar")
	e.fx.CreateStaff(ctx, e.school, "Alan Turing", "Teacher")
	other := e.fx.CreateSchool(ctx, "Riverside", "riverside.edu")
	e.fx.CreateStaff(ctx, other, "Grace Obi", "Teacher")

	rec := e.do(e.h.ServeList, "GET", "/staff?q=gra", "", "")
	var body struct {
		Items []models.Staff `json:"items"`
		Limit int64          `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].FullName != "Grace Hopper" {
		t.Errorf("items = %+v", body.Items)
	}
}

func TestDelete_UnlinksMemberships(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := e.fx.CreateStaff(ctx, e.school, "Grace Hopper", "Bursar")
	m := e.fx.CreateMembership(ctx, e.school, "uid-grace", "grace@hillside.edu", models.RoleStaff)
	e.fx.LinkStaff(ctx, m, st.ID)

	rec := e.do(e.h.ServeDelete, "DELETE", "/staff/x", "", st.ID.Hex())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got, err := membershipstore.New(e.db).GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("membership should survive: %v", err)
	}
	if got.StaffID != nil {
		t.Errorf("staff link not removed: %v", got.StaffID)
	}

	events, err := audit.New(e.db).Query(ctx, audit.QueryFilter{SchoolID: &e.school.ID, EventType: audit.EventStaffDeleted})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if len(events) != 1 || events[0].Details["memberships_unlinked"] != "1" {
		t.Errorf("audit events = %+v", events)
	}
}

func TestDelete_OtherSchool(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fx.CreateSchool(ctx, "Riverside", "riverside.edu")
	st := e.fx.CreateStaff(ctx, other, "Grace Obi", "Teacher")

	if rec := e.do(e.h.ServeDelete, "DELETE", "/staff/x", "", st.ID.Hex()); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRoutes_DeleteRequiresAdmin(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := e.fx.CreateStaff(ctx, e.school, "Grace Hopper", "Bursar")

	sm, err := auth.NewSessionManager(auth.Config{HashKey: []byte(strings.Repeat("k", 32))}, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	router := staff.Routes(e.h, sm)

	req := testutil.WithSession(httptest.NewRequest("DELETE", "/"+st.ID.Hex(), nil), testutil.StaffSession(e.school))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff delete status = %d, want 403", rec.Code)
	}
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fx.CreateStaff(ctx, e.school, "Grace Hopper", "Bursar")

	rec := e.do(e.h.ServeExport, "GET", "/staff/export.csv", "", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\r\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Grace Hopper,") {
		t.Errorf("lines = %q", lines)
	}
}

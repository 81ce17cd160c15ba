package members_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/schoolsuite/internal/app/features/errors"
	"github.com/dalemusser/schoolsuite/internal/app/features/members"
	"github.com/dalemusser/schoolsuite/internal/app/store/audit"
	"github.com/dalemusser/schoolsuite/internal/app/system/auditlog"
	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/schoolsuite/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	h      *members.Handler
	db     *mongo.Database
	fx     *testutil.Fixtures
	school models.School
	admin  models.Membership
	staff  models.Membership
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	al := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: auditlog.DB, Admin: auditlog.DB})
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	school := fx.CreateSchool(ctx, "Hillside", "hillside.edu")
	return env{
		h:      members.NewHandler(db, uierrors.NewErrorLogger(logger), al, logger),
		db:     db,
		fx:     fx,
		school: school,
		admin:  fx.CreateMembership(ctx, school, "uid-admin", "head@hillside.edu", models.RoleAdmin),
		staff:  fx.CreateMembership(ctx, school, "uid-staff", "grace@hillside.edu", models.RoleStaff),
	}
}

func (e env) patch(id, body string) *httptest.ResponseRecorder {
	req := testutil.WithChiURLParam(testutil.NewJSONRequest("PATCH", "/members/x", body), "id", id)
	rec := httptest.NewRecorder()
	e.h.ServeEdit(rec, testutil.WithSession(req, testutil.SessionFor(e.school, e.admin)))
	return rec
}

func TestList_ResolvesStaffNames(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := e.fx.CreateStaff(ctx, e.school, "Grace Hopper", "Bursar")
	e.fx.LinkStaff(ctx, e.staff, st.ID)
	other := e.fx.CreateSchool(ctx, "Riverside", "riverside.edu")
	e.fx.CreateMembership(ctx, other, "uid-x", "x@riverside.edu", models.RoleAdmin)

	rec := httptest.NewRecorder()
	e.h.ServeList(rec, testutil.WithSession(testutil.NewRequest("GET", "/members"), testutil.SessionFor(e.school, e.admin)))
	var body struct {
		Items []struct {
			Email     string `json:"email"`
			StaffName string `json:"staffName"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("items = %+v", body.Items)
	}
	for _, it := range body.Items {
		if it.Email == "grace@hillside.edu" && it.StaffName != "Grace Hopper" {
			t.Errorf("staffName = %q", it.StaffName)
		}
	}
}

func TestEdit_PromoteAndAudit(t *testing.T) {
	e := newEnv(t)
	rec := e.patch(e.staff.ID.Hex(), `{"role":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got models.Membership
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Role != models.RoleAdmin {
		t.Errorf("role = %q", got.Role)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events, err := audit.New(e.db).Query(ctx, audit.QueryFilter{SchoolID: &e.school.ID, EventType: audit.EventMembershipUpdated})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 || events[0].Details["role"] != "admin" || *events[0].ActorID != e.admin.ID {
		t.Errorf("events = %+v", events)
	}
}

func TestEdit_SelfDemotion(t *testing.T) {
	e := newEnv(t)
	rec := e.patch(e.admin.ID.Hex(), `{"role":"staff"}`)
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), members.CodeSelfDemotion) {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	// Re-asserting admin on oneself is harmless.
	if rec = e.patch(e.admin.ID.Hex(), `{"role":"admin"}`); rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestEdit_LinkAndUnlinkStaff(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	st := e.fx.CreateStaff(ctx, e.school, "Grace Hopper", "Bursar")

	rec := e.patch(e.staff.ID.Hex(), `{"staffId":"`+st.ID.Hex()+`"}`)
	var got models.Membership
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if rec.Code != http.StatusOK || got.StaffID == nil || *got.StaffID != st.ID {
		t.Fatalf("link: %d %+v", rec.Code, got)
	}

	rec = e.patch(e.staff.ID.Hex(), `{"staffId":""}`)
	got = models.Membership{}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if rec.Code != http.StatusOK || got.StaffID != nil {
		t.Errorf("unlink: %d %+v", rec.Code, got)
	}
}

func TestEdit_StaffFromOtherSchool(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fx.CreateSchool(ctx, "Riverside", "riverside.edu")
	st := e.fx.CreateStaff(ctx, other, "Alan Turing", "Teacher")

	rec := e.patch(e.staff.ID.Hex(), `{"staffId":"`+st.ID.Hex()+`"}`)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), members.CodeStaffNotFound) {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestEdit_MembershipInOtherSchool(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fx.CreateSchool(ctx, "Riverside", "riverside.edu")
	m := e.fx.CreateMembership(ctx, other, "uid-r", "r@riverside.edu", models.RoleStaff)

	if rec := e.patch(m.ID.Hex(), `{"role":"admin"}`); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestEdit_Validation(t *testing.T) {
	e := newEnv(t)
	for _, body := range []string{`{}`, `{"role":"owner"}`, `{"staffId":"zz"}`} {
		if rec := e.patch(e.staff.ID.Hex(), body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestRoutes_StaffForbidden(t *testing.T) {
	e := newEnv(t)
	sm, err := auth.NewSessionManager(auth.Config{HashKey: []byte(strings.Repeat("k", 32))}, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	req := testutil.WithSession(httptest.NewRequest("GET", "/", nil), testutil.SessionFor(e.school, e.staff))
	rec := httptest.NewRecorder()
	members.Routes(e.h, sm).ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

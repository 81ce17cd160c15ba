package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/store/audit"
	"github.com/dalemusser/schoolsuite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Log_FillsIDAndTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	schoolID := primitive.NewObjectID()
	before := time.Now().Add(-time.Second)
	err := store.Log(ctx, audit.Event{
		SchoolID:  &schoolID,
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignInSuccess,
		GoogleUID: "uid-1",
		IP:        "192.168.1.1",
		Success:   true,
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{SchoolID: &schoolID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.Before(before) {
		t.Errorf("timestamp %v not set", events[0].Timestamp)
	}
}

func TestStore_Query_ScopedToSchool(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for _, id := range []primitive.ObjectID{a, a, b} {
		id := id
		if err := store.Log(ctx, audit.Event{SchoolID: &id, Category: audit.CategoryAdmin, EventType: audit.EventMembershipUpdated, Success: true}); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	n, err := store.Count(ctx, audit.QueryFilter{SchoolID: &a})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("school a has %d events, want 2", n)
	}
}

func TestStore_Query_ByCategoryAndType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	schoolID := primitive.NewObjectID()
	events := []audit.Event{
		{SchoolID: &schoolID, Category: audit.CategoryAuth, EventType: audit.EventSignInSuccess, Success: true},
		{SchoolID: &schoolID, Category: audit.CategoryAuth, EventType: audit.EventSignInFailed, FailureReason: "DOMAIN_MISMATCH"},
		{SchoolID: &schoolID, Category: audit.CategoryAdmin, EventType: audit.EventSchoolCreated, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	auth, err := store.Query(ctx, audit.QueryFilter{SchoolID: &schoolID, Category: audit.CategoryAuth})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(auth) != 2 {
		t.Errorf("auth events = %d, want 2", len(auth))
	}

	failed, err := store.Query(ctx, audit.QueryFilter{SchoolID: &schoolID, EventType: audit.EventSignInFailed})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(failed) != 1 || failed[0].FailureReason != "DOMAIN_MISMATCH" {
		t.Errorf("failed events = %+v", failed)
	}
}

func TestStore_Query_NewestFirstWithLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	schoolID := primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.Log(ctx, audit.Event{
			SchoolID:  &schoolID,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Category:  audit.CategoryAuth,
			EventType: audit.EventSignOut,
			Success:   true,
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.Query(ctx, audit.QueryFilter{SchoolID: &schoolID, Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("first event at %v, want newest", got[0].Timestamp)
	}
}

func TestStore_Query_EmptyIsNonNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := store.Query(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got == nil {
		t.Error("expected empty slice, got nil")
	}
}

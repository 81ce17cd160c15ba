package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/dalemusser/schoolsuite/internal/app/store/metrics"
	"github.com/dalemusser/schoolsuite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFetchSchoolCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts, err := metricsstore.FetchSchoolCounts(ctx, db, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("FetchSchoolCounts: %v", err)
	}
	if counts != (metricsstore.Counts{}) {
		t.Errorf("counts = %+v, want all zero", counts)
	}
}

func TestFetchSchoolCounts_ScopedToSchool(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hillside := fixtures.CreateSchool(ctx, "Hillside", "hillside.edu")
	other := fixtures.CreateSchool(ctx, "Riverside", "riverside.edu")

	fixtures.CreateStudent(ctx, hillside, "Ada", "Obi")
	fixtures.CreateStudent(ctx, hillside, "Bola", "Ade")
	fixtures.CreateStudent(ctx, other, "Chidi", "Eze")
	fixtures.CreateStaff(ctx, hillside, "Grace Hopper", "Teacher")
	fixtures.CreateEvent(ctx, hillside, "Sports Day", time.Now())
	fixtures.CreateEvent(ctx, other, "Open Day", time.Now())

	counts, err := metricsstore.FetchSchoolCounts(ctx, db, hillside.ID)
	if err != nil {
		t.Fatalf("FetchSchoolCounts: %v", err)
	}
	want := metricsstore.Counts{Students: 2, Staff: 1, Events: 1}
	if counts != want {
		t.Errorf("counts = %+v, want %+v", counts, want)
	}
}

package staffstore_test

import (
	"errors"
	"testing"

	staffstore "github.com/dalemusser/schoolsuite/internal/app/store/staff"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/schoolsuite/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateDefaultsStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := staffstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fixtures.CreateSchool(ctx, "Hillside", "hillside.edu")
	st, err := store.Create(ctx, models.Staff{SchoolID: school.ID, FullName: "Ada Lovelace", Position: "Teacher"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if st.Status != "active" || st.FullNameCI != "ada lovelace" {
		t.Errorf("unexpected defaults: status=%q ci=%q", st.Status, st.FullNameCI)
	}
}

func TestStore_ListSearchesByNamePrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := staffstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fixtures.CreateSchool(ctx, "Hillside", "hillside.edu")
	fixtures.CreateStaff(ctx, school, "Ada Lovelace", "Teacher")
	fixtures.CreateStaff(ctx, school, "Alan Turing", "Bursar")
	fixtures.CreateStaff(ctx, school, "Grace Hopper", "Principal")

	got, err := store.List(ctx, school.ID, "a", 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("prefix \"a\" matched %d profiles, want 2", len(got))
	}

	got, err = store.List(ctx, school.ID, "", 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit 1 returned %d profiles", len(got))
	}
}

func TestStore_TenantScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := staffstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hillside := fixtures.CreateSchool(ctx, "Hillside", "hillside.edu")
	riverside := fixtures.CreateSchool(ctx, "Riverside", "riverside.edu")
	st := fixtures.CreateStaff(ctx, hillside, "Ada Lovelace", "Teacher")

	if _, err := store.GetByID(ctx, riverside.ID, st.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("cross-school GetByID err = %v, want ErrNoDocuments", err)
	}
	if _, err := store.Update(ctx, riverside.ID, st.ID, st); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("cross-school Update err = %v, want ErrNoDocuments", err)
	}
	if n, err := store.Delete(ctx, riverside.ID, st.ID); err != nil || n != 0 {
		t.Errorf("cross-school Delete = %d, %v; want 0, nil", n, err)
	}
	if list, _ := store.List(ctx, riverside.ID, "", 0); len(list) != 0 {
		t.Errorf("other school sees %d profiles", len(list))
	}
	if c, _ := store.Count(ctx, hillside.ID); c != 1 {
		t.Errorf("Count = %d, want 1", c)
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := staffstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	school := fixtures.CreateSchool(ctx, "Hillside", "hillside.edu")
	st := fixtures.CreateStaff(ctx, school, "Ada Lovelace", "Teacher")

	st.FullName = "Ada King"
	st.Department = "Mathematics"
	st.Status = "inactive"
	got, err := store.Update(ctx, school.ID, st.ID, st)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.FullNameCI != "ada king" || got.Department != "Mathematics" || got.Status != "inactive" {
		t.Errorf("unexpected update result: %+v", got)
	}

	n, err := store.Delete(ctx, school.ID, st.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v; want 1, nil", n, err)
	}
	if _, err := store.GetByID(ctx, school.ID, st.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByID after delete err = %v", err)
	}
}

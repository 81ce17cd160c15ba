package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test records directly, bypassing the stores.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateSchool creates a school owning domain.
func (f *Fixtures) CreateSchool(ctx context.Context, name, domain string) models.School {
	f.t.Helper()
	now := time.Now().UTC()
	s := models.School{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Domain:    strings.ToLower(domain),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "schools", s)
	return s
}

// CreateMembership creates a membership in school with the given role.
func (f *Fixtures) CreateMembership(ctx context.Context, school models.School, uid, email, role string) models.Membership {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.Membership{
		ID:        primitive.NewObjectID(),
		GoogleUID: uid,
		Email:     strings.ToLower(email),
		Role:      role,
		SchoolID:  school.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "memberships", m)
	return m
}

// CreateStaff creates an active staff profile in school.
func (f *Fixtures) CreateStaff(ctx context.Context, school models.School, fullName, position string) models.Staff {
	f.t.Helper()
	now := time.Now().UTC()
	s := models.Staff{
		ID:         primitive.NewObjectID(),
		SchoolID:   school.ID,
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Position:   position,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "staff", s)
	return s
}

// CreateStudent creates an active student in school.
func (f *Fixtures) CreateStudent(ctx context.Context, school models.School, first, last string) models.Student {
	f.t.Helper()
	now := time.Now().UTC()
	s := models.Student{
		ID:         primitive.NewObjectID(),
		SchoolID:   school.ID,
		FirstName:  first,
		LastName:   last,
		FullNameCI: text.Fold(first + " " + last),
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "students", s)
	return s
}

// LinkStaff points membership m at staff profile staffID.
func (f *Fixtures) LinkStaff(ctx context.Context, m models.Membership, staffID primitive.ObjectID) models.Membership {
	f.t.Helper()
	_, err := f.db.Collection("memberships").UpdateByID(ctx, m.ID, bson.M{
		"$set": bson.M{"staff_id": staffID},
	})
	if err != nil {
		f.t.Fatalf("failed to link staff: %v", err)
	}
	m.StaffID = &staffID
	return m
}

// CreateFinancialEntry creates an income or expense entry dated date (YYYY-MM-DD).
func (f *Fixtures) CreateFinancialEntry(ctx context.Context, school models.School, typ string, amount int64, date string) models.FinancialEntry {
	f.t.Helper()
	now := time.Now().UTC()
	e := models.FinancialEntry{
		ID:         primitive.NewObjectID(),
		SchoolID:   school.ID,
		Type:       typ,
		Amount:     amount,
		Date:       date,
		Category:   "General",
		CategoryCI: text.Fold("General"),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	f.insert(ctx, "financial_entries", e)
	return e
}

// CreateEvent creates an event starting at startsAt.
func (f *Fixtures) CreateEvent(ctx context.Context, school models.School, title string, startsAt time.Time) models.Event {
	f.t.Helper()
	now := time.Now().UTC()
	e := models.Event{
		ID:        primitive.NewObjectID(),
		SchoolID:  school.ID,
		Title:     title,
		TitleCI:   text.Fold(title),
		StartsAt:  startsAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "events", e)
	return e
}

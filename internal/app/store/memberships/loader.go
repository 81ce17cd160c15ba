// internal/app/store/memberships/loader.go
package membershipstore

import (
	"context"
	"errors"

	"github.com/dalemusser/schoolsuite/internal/app/system/auth"
	"github.com/dalemusser/schoolsuite/internal/app/system/timeouts"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Loader implements auth.Loader, rebuilding the session from MongoDB on
// every request so role changes and staff links apply immediately.
type Loader struct {
	memberships *mongo.Collection
	schools     *mongo.Collection
	staff       *mongo.Collection
}

// NewLoader creates a session loader over db.
func NewLoader(db *mongo.Database) *Loader {
	return &Loader{
		memberships: db.Collection("memberships"),
		schools:     db.Collection("schools"),
		staff:       db.Collection("staff"),
	}
}

// LoadSession returns (nil, nil) when the membership or its school is gone.
// A staff link that no longer resolves is dropped rather than failing.
func (l *Loader) LoadSession(ctx context.Context, membershipID primitive.ObjectID) (*auth.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var m models.Membership
	if err := l.memberships.FindOne(ctx, bson.M{"_id": membershipID}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	var school models.School
	if err := l.schools.FindOne(ctx, bson.M{"_id": m.SchoolID}).Decode(&school); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	s := &auth.Session{School: school, Membership: m}
	if m.StaffID != nil {
		var st models.Staff
		err := l.staff.FindOne(ctx, bson.M{"_id": *m.StaffID, "school_id": m.SchoolID}).Decode(&st)
		switch {
		case err == nil:
			s.Staff = &st
		case !errors.Is(err, mongo.ErrNoDocuments):
			return nil, err
		}
	}
	return s, nil
}

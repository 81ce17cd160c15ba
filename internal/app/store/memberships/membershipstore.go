// internal/app/store/memberships/membershipstore.go
package membershipstore

// Terminology: Identifiers
//   - GoogleUID / google_uid: the stable subject of the Google account, unique system-wide
//   - MembershipID / membership_id: the MongoDB ObjectID (_id) of the membership record

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names. The indexes package creates them and classifyDup reads them
// back out of duplicate-key errors.
const (
	IndexGoogleUID   = "uniq_memberships_google_uid"
	IndexSchoolEmail = "uniq_memberships_school_email"
)

var (
	// ErrDuplicateGoogleUID means the Google account already has a membership.
	ErrDuplicateGoogleUID = errors.New("this Google account already has a membership")
	// ErrDuplicateEmail means the school already has a membership with this email.
	ErrDuplicateEmail = errors.New("a membership with this email already exists in the school")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("memberships")}
}

// Create inserts a membership with a lower-cased email.
func (s *Store) Create(ctx context.Context, m models.Membership) (models.Membership, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.Email = normalize.Email(m.Email)
	m.Name = normalize.Name(m.Name)
	m.Role = normalize.Role(m.Role)
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Membership{}, classifyDup(err)
	}
	return m, nil
}

// classifyDup maps a duplicate-key error to the sentinel for the index
// that rejected it.
func classifyDup(err error) error {
	if !wafflemongo.IsDup(err) {
		return err
	}
	if strings.Contains(err.Error(), IndexSchoolEmail) {
		return ErrDuplicateEmail
	}
	return ErrDuplicateGoogleUID
}

// GetByID returns mongo.ErrNoDocuments when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Membership, error) {
	var m models.Membership
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Membership{}, err
	}
	return m, nil
}

// GetByGoogleUID returns mongo.ErrNoDocuments when absent.
func (s *Store) GetByGoogleUID(ctx context.Context, uid string) (models.Membership, error) {
	var m models.Membership
	if err := s.c.FindOne(ctx, bson.M{"google_uid": uid}).Decode(&m); err != nil {
		return models.Membership{}, err
	}
	return m, nil
}

// CountBySchool counts memberships of every role in the school.
func (s *Store) CountBySchool(ctx context.Context, schoolID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID})
}

// UpdateEmail stores a new (normalized) email for the membership.
func (s *Store) UpdateEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"email":      normalize.Email(email),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return classifyDup(err)
	}
	return nil
}

// ListBySchool returns the school's memberships ordered by email.
func (s *Store) ListBySchool(ctx context.Context, schoolID primitive.ObjectID) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "email", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"school_id": schoolID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update carries the mutable fields of an admin edit. Nil fields are left
// unchanged; ClearStaff removes the staff link.
type Update struct {
	Role       *string
	StaffID    *primitive.ObjectID
	ClearStaff bool
}

// Apply updates a membership within the school and returns the stored
// result. Returns mongo.ErrNoDocuments if the membership is not in the school.
func (s *Store) Apply(ctx context.Context, schoolID, id primitive.ObjectID, u Update) (models.Membership, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	update := bson.M{}
	if u.Role != nil {
		set["role"] = normalize.Role(*u.Role)
	}
	if u.ClearStaff {
		update["$unset"] = bson.M{"staff_id": ""}
	} else if u.StaffID != nil {
		set["staff_id"] = *u.StaffID
	}
	update["$set"] = set

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Membership
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "school_id": schoolID}, update, opts).Decode(&m)
	if err != nil {
		return models.Membership{}, err
	}
	return m, nil
}

// UnlinkStaff removes staffID from every membership in the school that
// points at it. Returns the number of memberships changed.
func (s *Store) UnlinkStaff(ctx context.Context, schoolID, staffID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"school_id": schoolID, "staff_id": staffID},
		bson.M{
			"$unset": bson.M{"staff_id": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

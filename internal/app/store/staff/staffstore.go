// internal/app/store/staff/staffstore.go
package staffstore

import (
	"context"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/system/search"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("staff")}
}

func (s *Store) Create(ctx context.Context, st models.Staff) (models.Staff, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.FullNameCI = text.Fold(st.FullName)
	if st.Status == "" {
		st.Status = "active"
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		return models.Staff{}, err
	}
	return st, nil
}

// GetByID returns mongo.ErrNoDocuments when the profile is not in the school.
func (s *Store) GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.Staff, error) {
	var st models.Staff
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "school_id": schoolID}).Decode(&st); err != nil {
		return models.Staff{}, err
	}
	return st, nil
}

// List returns the newest profiles first, optionally filtered by a name prefix.
func (s *Store) List(ctx context.Context, schoolID primitive.ObjectID, q string, limit int64) ([]models.Staff, error) {
	filter := search.Prefix(bson.M{"school_id": schoolID}, "full_name_ci", q)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Staff
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable fields. Returns mongo.ErrNoDocuments when the
// profile is not in the school.
func (s *Store) Update(ctx context.Context, schoolID, id primitive.ObjectID, st models.Staff) (models.Staff, error) {
	set := bson.M{
		"full_name":    st.FullName,
		"full_name_ci": text.Fold(st.FullName),
		"email":        st.Email,
		"phone":        st.Phone,
		"position":     st.Position,
		"department":   st.Department,
		"hire_date":    st.HireDate,
		"status":       st.Status,
		"updated_at":   time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Staff
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "school_id": schoolID}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return models.Staff{}, err
	}
	return out, nil
}

// Delete removes a profile. Returns the number of documents deleted (0 or 1).
// Callers unlink memberships that point at the profile.
func (s *Store) Delete(ctx context.Context, schoolID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "school_id": schoolID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) Count(ctx context.Context, schoolID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID})
}

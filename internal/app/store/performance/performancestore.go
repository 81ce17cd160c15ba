// internal/app/store/performance/performancestore.go
package performancestore

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
	return &Store{c: db.Collection("performance_records")}
}

func (s *Store) Create(ctx context.Context, p models.PerformanceRecord) (models.PerformanceRecord, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.StudentNameCI = text.Fold(p.StudentName)
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.PerformanceRecord{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.PerformanceRecord, error) {
	var p models.PerformanceRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "school_id": schoolID}).Decode(&p); err != nil {
		return models.PerformanceRecord{}, err
	}
	return p, nil
}

// Filter narrows a performance listing.
type Filter struct {
	StudentID *primitive.ObjectID
	Query     string // student name prefix
	Limit     int64
}

func (s *Store) List(ctx context.Context, schoolID primitive.ObjectID, f Filter) ([]models.PerformanceRecord, error) {
	filter := search.Prefix(bson.M{"school_id": schoolID}, "student_name_ci", f.Query)
	if f.StudentID != nil {
		filter["student_id"] = *f.StudentID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.PerformanceRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes the assessed fields; the student link is fixed at creation.
func (s *Store) Update(ctx context.Context, schoolID, id primitive.ObjectID, p models.PerformanceRecord) (models.PerformanceRecord, error) {
	set := bson.M{
		"subject":    p.Subject,
		"term":       p.Term,
		"score":      p.Score,
		"max_score":  p.MaxScore,
		"remarks":    p.Remarks,
		"updated_at": time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.PerformanceRecord
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "school_id": schoolID}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return models.PerformanceRecord{}, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, schoolID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "school_id": schoolID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

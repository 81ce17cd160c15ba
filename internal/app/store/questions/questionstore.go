// internal/app/store/questions/questionstore.go
package questionstore

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
	return &Store{c: db.Collection("questions")}
}

func (s *Store) Create(ctx context.Context, q models.Question) (models.Question, error) {
	now := time.Now().UTC()
	q.ID = primitive.NewObjectID()
	q.SubjectCI = text.Fold(q.Subject)
	q.CreatedAt = now
	q.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

func (s *Store) GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.Question, error) {
	var q models.Question
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "school_id": schoolID}).Decode(&q); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// List filters by a subject prefix.
func (s *Store) List(ctx context.Context, schoolID primitive.ObjectID, subject string, limit int64) ([]models.Question, error) {
	filter := search.Prefix(bson.M{"school_id": schoolID}, "subject_ci", subject)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Question
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, schoolID, id primitive.ObjectID, q models.Question) (models.Question, error) {
	set := bson.M{
		"subject":    q.Subject,
		"subject_ci": text.Fold(q.Subject),
		"topic":      q.Topic,
		"prompt":     q.Prompt,
		"options":    q.Options,
		"answer":     q.Answer,
		"difficulty": q.Difficulty,
		"updated_at": time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Question
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "school_id": schoolID}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return models.Question{}, err
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

func (s *Store) Count(ctx context.Context, schoolID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"school_id": schoolID})
}

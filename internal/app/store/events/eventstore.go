// internal/app/store/events/eventstore.go
package eventstore

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
	return &Store{c: db.Collection("events")}
}

func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.TitleCI = text.Fold(e.Title)
	e.StartsAt = e.StartsAt.UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "school_id": schoolID}).Decode(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// List returns the latest-starting events first.
func (s *Store) List(ctx context.Context, schoolID primitive.ObjectID, q string, limit int64) ([]models.Event, error) {
	filter := search.Prefix(bson.M{"school_id": schoolID}, "title_ci", q)
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, schoolID, id primitive.ObjectID, e models.Event) (models.Event, error) {
	set := bson.M{
		"title":       e.Title,
		"title_ci":    text.Fold(e.Title),
		"starts_at":   e.StartsAt.UTC(),
		"location":    e.Location,
		"description": e.Description,
		"updated_at":  time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if e.EndsAt != nil {
		set["ends_at"] = e.EndsAt.UTC()
	} else {
		update["$unset"] = bson.M{"ends_at": ""}
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.Event
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "school_id": schoolID}, update, opts).Decode(&out)
	if err != nil {
		return models.Event{}, err
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

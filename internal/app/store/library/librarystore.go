// internal/app/store/library/librarystore.go
package librarystore

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
	return &Store{c: db.Collection("library_assets")}
}

func (s *Store) Create(ctx context.Context, a models.LibraryAsset) (models.LibraryAsset, error) {
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.TitleCI = text.Fold(a.Title)
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.LibraryAsset{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.LibraryAsset, error) {
	var a models.LibraryAsset
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "school_id": schoolID}).Decode(&a); err != nil {
		return models.LibraryAsset{}, err
	}
	return a, nil
}

func (s *Store) List(ctx context.Context, schoolID primitive.ObjectID, q string, limit int64) ([]models.LibraryAsset, error) {
	filter := search.Prefix(bson.M{"school_id": schoolID}, "title_ci", q)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LibraryAsset
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, schoolID, id primitive.ObjectID, a models.LibraryAsset) (models.LibraryAsset, error) {
	set := bson.M{
		"title":      a.Title,
		"title_ci":   text.Fold(a.Title),
		"author":     a.Author,
		"isbn":       a.ISBN,
		"category":   a.Category,
		"copies":     a.Copies,
		"available":  a.Available,
		"updated_at": time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.LibraryAsset
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "school_id": schoolID}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return models.LibraryAsset{}, err
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

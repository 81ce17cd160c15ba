// internal/app/store/finances/financestore.go
package financestore

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

// Totals is the school-wide income and expense sum.
type Totals struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("financial_entries")}
}

func (s *Store) Create(ctx context.Context, e models.FinancialEntry) (models.FinancialEntry, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.CategoryCI = text.Fold(e.Category)
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.FinancialEntry{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.FinancialEntry, error) {
	var e models.FinancialEntry
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "school_id": schoolID}).Decode(&e); err != nil {
		return models.FinancialEntry{}, err
	}
	return e, nil
}

// List returns entries newest date first, optionally filtered by category prefix.
func (s *Store) List(ctx context.Context, schoolID primitive.ObjectID, q string, limit int64) ([]models.FinancialEntry, error) {
	filter := search.Prefix(bson.M{"school_id": schoolID}, "category_ci", q)
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, filter, opts)
}

// ListAll returns every entry of the school in date order. Used by exports
// and the monthly overview.
func (s *Store) ListAll(ctx context.Context, schoolID primitive.ObjectID) ([]models.FinancialEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}})
	return s.find(ctx, bson.M{"school_id": schoolID}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.FinancialEntry, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FinancialEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, schoolID, id primitive.ObjectID, e models.FinancialEntry) (models.FinancialEntry, error) {
	set := bson.M{
		"type":        e.Type,
		"amount":      e.Amount,
		"date":        e.Date,
		"category":    e.Category,
		"category_ci": text.Fold(e.Category),
		"description": e.Description,
		"updated_at":  time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out models.FinancialEntry
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "school_id": schoolID}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		return models.FinancialEntry{}, err
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

// Totals sums income and expense for the school on the server.
func (s *Store) Totals(ctx context.Context, schoolID primitive.ObjectID) (Totals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"school_id": schoolID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$type",
			"total": bson.M{"$sum": "$amount"},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Totals{}, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Type  string `bson:"_id"`
		Total int64  `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return Totals{}, err
	}

	var t Totals
	for _, row := range rows {
		switch row.Type {
		case models.EntryIncome:
			t.Income = row.Total
		case models.EntryExpense:
			t.Expense = row.Total
		}
	}
	t.Balance = t.Income - t.Expense
	return t, nil
}

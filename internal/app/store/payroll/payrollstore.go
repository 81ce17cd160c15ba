// internal/app/store/payroll/payrollstore.go
package payrollstore

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

// Store persists payroll records. Records are never updated in place.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("payroll_records")}
}

func (s *Store) Create(ctx context.Context, p models.PayrollRecord) (models.PayrollRecord, error) {
	p.ID = primitive.NewObjectID()
	p.StaffNameCI = text.Fold(p.StaffName)
	p.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.PayrollRecord{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.PayrollRecord, error) {
	var p models.PayrollRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "school_id": schoolID}).Decode(&p); err != nil {
		return models.PayrollRecord{}, err
	}
	return p, nil
}

// List returns records newest period first, optionally filtered by a staff
// name prefix.
func (s *Store) List(ctx context.Context, schoolID primitive.ObjectID, q string, limit int64) ([]models.PayrollRecord, error) {
	filter := search.Prefix(bson.M{"school_id": schoolID}, "staff_name_ci", q)
	opts := options.Find().SetSort(bson.D{{Key: "period", Value: -1}, {Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, filter, opts)
}

// ListAll returns every record of the school ordered by period.
func (s *Store) ListAll(ctx context.Context, schoolID primitive.ObjectID) ([]models.PayrollRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "period", Value: 1}, {Key: "staff_name_ci", Value: 1}})
	return s.find(ctx, bson.M{"school_id": schoolID}, opts)
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.PayrollRecord, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.PayrollRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
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

// internal/app/store/schools/schoolstore.go
package schoolstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateDomain is returned when another school already owns the domain.
var ErrDuplicateDomain = errors.New("a school with this domain already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("schools")}
}

// Create inserts a school. Domain is normalized before insert; the unique
// index on domain turns a concurrent second insert into ErrDuplicateDomain.
func (s *Store) Create(ctx context.Context, school models.School) (models.School, error) {
	now := time.Now().UTC()
	school.ID = primitive.NewObjectID()
	school.Name = normalize.Name(school.Name)
	school.NameCI = text.Fold(school.Name)
	school.Domain = normalize.Domain(school.Domain)
	school.CreatedAt = now
	school.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, school); err != nil {
		if wafflemongo.IsDup(err) {
			return models.School{}, ErrDuplicateDomain
		}
		return models.School{}, err
	}
	return school, nil
}

// GetByID returns mongo.ErrNoDocuments when the school does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.School, error) {
	var school models.School
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&school); err != nil {
		return models.School{}, err
	}
	return school, nil
}

// GetByDomain returns mongo.ErrNoDocuments when no school owns domain.
func (s *Store) GetByDomain(ctx context.Context, domain string) (models.School, error) {
	var school models.School
	if err := s.c.FindOne(ctx, bson.M{"domain": normalize.Domain(domain)}).Decode(&school); err != nil {
		return models.School{}, err
	}
	return school, nil
}

// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Counts is the set of per-school totals shown on the dashboard.
type Counts struct {
	Students      int64 `json:"students"`
	Staff         int64 `json:"staff"`
	Events        int64 `json:"events"`
	LibraryAssets int64 `json:"libraryAssets"`
	Questions     int64 `json:"questions"`
}

// FetchSchoolCounts counts the school's records in each collection
// concurrently. The first failing count is returned.
func FetchSchoolCounts(ctx context.Context, db *mongo.Database, schoolID primitive.ObjectID) (Counts, error) {
	var out Counts
	targets := []struct {
		coll string
		dst  *int64
	}{
		{"students", &out.Students},
		{"staff", &out.Staff},
		{"events", &out.Events},
		{"library_assets", &out.LibraryAssets},
		{"questions", &out.Questions},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			n, err := db.Collection(t.coll).CountDocuments(gctx, bson.M{"school_id": schoolID})
			if err != nil {
				return fmt.Errorf("count %s: %w", t.coll, err)
			}
			*t.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Counts{}, err
	}
	return out, nil
}

// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TTL is how long a Google consent round trip may take.
const TTL = 10 * time.Minute

// State is a one-time token for the Google code flow. It carries what the
// callback needs to finish sign-in: the return path and the optional school
// name and role the user asked for.
type State struct {
	State      string    `bson:"state"`
	ReturnURL  string    `bson:"return_url,omitempty"`
	SchoolName string    `bson:"school_name,omitempty"`
	Role       string    `bson:"role,omitempty"`
	ExpiresAt  time.Time `bson:"expires_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores st, defaulting ExpiresAt to now+TTL.
func (s *Store) Save(ctx context.Context, st State) error {
	now := time.Now().UTC()
	st.CreatedAt = now
	if st.ExpiresAt.IsZero() {
		st.ExpiresAt = now.Add(TTL)
	}
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Consume deletes and returns an unexpired state. ok is false when the
// token is unknown, already used or expired. The TTL index removes
// expired documents eventually; the expiry filter covers the gap.
func (s *Store) Consume(ctx context.Context, state string) (st State, ok bool, err error) {
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// CleanupExpired deletes expired states and returns how many were removed.
// It backs up the TTL index, whose monitor runs only once a minute.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventSignInSuccess     = "signin_success"
	EventSignInFailed      = "signin_failed"
	EventSignInRateLimited = "signin_rate_limited"
	EventSignOut           = "signout"
)

// Admin event types. School and membership creation happen during sign-in
// but are recorded as admin events because they change tenancy.
const (
	EventSchoolCreated         = "school_created"
	EventMembershipCreated     = "membership_created"
	EventMembershipEmailSynced = "membership_email_synced"
	EventMembershipUpdated     = "membership_updated"
	EventStaffDeleted          = "staff_deleted"
	EventStudentDeleted        = "student_deleted"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	SchoolID  *primitive.ObjectID `bson:"school_id,omitempty" json:"schoolId,omitempty"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"eventType"`

	// Who
	MembershipID *primitive.ObjectID `bson:"membership_id,omitempty" json:"membershipId,omitempty"` // affected membership
	ActorID      *primitive.ObjectID `bson:"actor_id,omitempty" json:"actorId,omitempty"`           // membership that acted
	GoogleUID    string              `bson:"google_uid,omitempty" json:"googleUid,omitempty"`

	IP        string `bson:"ip" json:"ip"`
	UserAgent string `bson:"user_agent,omitempty" json:"userAgent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query and Count. SchoolID is required by callers
// serving a tenant.
type QueryFilter struct {
	SchoolID     *primitive.ObjectID
	MembershipID *primitive.ObjectID
	Category     string
	EventType    string
	Since        *time.Time
	Until        *time.Time
	Limit        int64
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log inserts event, filling in id and timestamp when zero.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) bson() bson.M {
	q := bson.M{}
	if f.SchoolID != nil {
		q["school_id"] = *f.SchoolID
	}
	if f.MembershipID != nil {
		q["membership_id"] = *f.MembershipID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.Since != nil || f.Until != nil {
		ts := bson.M{}
		if f.Since != nil {
			ts["$gte"] = *f.Since
		}
		if f.Until != nil {
			ts["$lte"] = *f.Until
		}
		q["timestamp"] = ts
	}
	return q
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of matching events.
func (s *Store) Count(ctx context.Context, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// internal/domain/models/question.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Question is a question-bank item.
type Question struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	SchoolID   primitive.ObjectID `bson:"school_id" json:"schoolId"`
	Subject    string             `bson:"subject" json:"subject"`
	SubjectCI  string             `bson:"subject_ci" json:"-"`
	Topic      string             `bson:"topic,omitempty" json:"topic,omitempty"`
	Prompt     string             `bson:"prompt" json:"prompt"`
	Options    []string           `bson:"options,omitempty" json:"options,omitempty"`
	Answer     string             `bson:"answer" json:"answer"`
	Difficulty string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // easy | medium | hard
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

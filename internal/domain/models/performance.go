// internal/domain/models/performance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PerformanceRecord is one assessed score for a student.
type PerformanceRecord struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	SchoolID      primitive.ObjectID `bson:"school_id" json:"schoolId"`
	StudentID     primitive.ObjectID `bson:"student_id" json:"studentId"`
	StudentName   string             `bson:"student_name" json:"studentName"`
	StudentNameCI string             `bson:"student_name_ci" json:"-"`
	Subject       string             `bson:"subject" json:"subject"`
	Term          string             `bson:"term" json:"term"`
	Score         float64            `bson:"score" json:"score"`
	MaxScore      float64            `bson:"max_score" json:"maxScore"`
	Remarks       string             `bson:"remarks,omitempty" json:"remarks,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Percent returns the score as a percentage of MaxScore.
func (p PerformanceRecord) Percent() float64 {
	if p.MaxScore <= 0 {
		return 0
	}
	return p.Score / p.MaxScore * 100
}

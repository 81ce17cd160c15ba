// internal/domain/models/staff.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Staff is an internal HR record. It is not the same entity as a
// Membership; a membership may point at one staff profile.
type Staff struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	SchoolID   primitive.ObjectID `bson:"school_id" json:"schoolId"`
	FullName   string             `bson:"full_name" json:"fullName"`
	FullNameCI string             `bson:"full_name_ci" json:"-"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Position   string             `bson:"position" json:"position"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	HireDate   string             `bson:"hire_date,omitempty" json:"hireDate,omitempty"` // YYYY-MM-DD
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Student struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	SchoolID      primitive.ObjectID `bson:"school_id" json:"schoolId"`
	FirstName     string             `bson:"first_name" json:"firstName"`
	LastName      string             `bson:"last_name" json:"lastName"`
	FullNameCI    string             `bson:"full_name_ci" json:"-"` // "first last", folded
	AdmissionNo   string             `bson:"admission_no,omitempty" json:"admissionNo,omitempty"`
	ClassName     string             `bson:"class_name,omitempty" json:"className,omitempty"`
	GuardianName  string             `bson:"guardian_name,omitempty" json:"guardianName,omitempty"`
	GuardianPhone string             `bson:"guardian_phone,omitempty" json:"guardianPhone,omitempty"`
	DateOfBirth   string             `bson:"date_of_birth,omitempty" json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// FullName returns "First Last".
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

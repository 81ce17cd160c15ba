// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Membership binds one verified Google identity to one school.
//
// NOTE:
//   - GoogleUID is unique across the whole system.
//   - Email is stored lower-cased and is unique within a school.
//   - StaffID is a weak reference; deleting the staff profile unsets it.
type Membership struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	GoogleUID string              `bson:"google_uid" json:"googleUid"`
	Email     string              `bson:"email" json:"email"`
	Name      string              `bson:"name,omitempty" json:"name,omitempty"`
	Role      string              `bson:"role" json:"role"` // admin | staff
	SchoolID  primitive.ObjectID  `bson:"school_id" json:"schoolId"`
	StaffID   *primitive.ObjectID `bson:"staff_id,omitempty" json:"staffId,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the membership carries the admin role.
func (m Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// ValidRole reports whether role is one of the membership roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

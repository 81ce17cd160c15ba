// internal/domain/models/libraryasset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LibraryAsset is a title held by the school library. Available is the
// number of copies currently on the shelf and never exceeds Copies.
type LibraryAsset struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	SchoolID  primitive.ObjectID `bson:"school_id" json:"schoolId"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"-"`
	Author    string             `bson:"author,omitempty" json:"author,omitempty"`
	ISBN      string             `bson:"isbn,omitempty" json:"isbn,omitempty"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	Copies    int                `bson:"copies" json:"copies"`
	Available int                `bson:"available" json:"available"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

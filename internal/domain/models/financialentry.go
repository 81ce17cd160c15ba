// internal/domain/models/financialentry.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Financial entry types.
const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

// FinancialEntry is one income or expense line in a school's books.
// Date is kept as the submitted "YYYY-MM-DD" string; monthly summaries
// group on its first seven characters.
type FinancialEntry struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	SchoolID    primitive.ObjectID `bson:"school_id" json:"schoolId"`
	Type        string             `bson:"type" json:"type"`
	Amount      int64              `bson:"amount" json:"amount"`
	Date        string             `bson:"date" json:"date"`
	Category    string             `bson:"category" json:"category"`
	CategoryCI  string             `bson:"category_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

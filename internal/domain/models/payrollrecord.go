// internal/domain/models/payrollrecord.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PayItem is one parsed "Label:Amount" line of an allowance or deduction list.
type PayItem struct {
	Label  string `bson:"label" json:"label"`
	Amount int64  `bson:"amount" json:"amount"`
}

// PayrollRecord is immutable once created; corrections are made by
// deleting and recreating the record.
type PayrollRecord struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	SchoolID       primitive.ObjectID `bson:"school_id" json:"schoolId"`
	StaffID        primitive.ObjectID `bson:"staff_id" json:"staffId"`
	StaffName      string             `bson:"staff_name" json:"staffName"`
	StaffNameCI    string             `bson:"staff_name_ci" json:"-"`
	Period         string             `bson:"period" json:"period"` // YYYY-MM
	GrossPay       int64              `bson:"gross_pay" json:"grossPay"`
	Allowances     []PayItem          `bson:"allowances" json:"allowances"`
	Deductions     []PayItem          `bson:"deductions" json:"deductions"`
	TotalAllowance int64              `bson:"total_allowance" json:"totalAllowance"`
	TotalDeduction int64              `bson:"total_deduction" json:"totalDeduction"`
	NetPay         int64              `bson:"net_pay" json:"netPay"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

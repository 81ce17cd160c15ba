// internal/app/system/payrollcalc/payrollcalc.go
package payrollcalc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dalemusser/schoolsuite/internal/domain/models"
)

// Field names used in ItemizedLineError.
const (
	FieldAllowances = "allowances"
	FieldDeductions = "deductions"
)

// amountPattern accepts plain digits or digits grouped by "," thousands separators.
var amountPattern = regexp.MustCompile(`^(\d+|\d{1,3}(,\d{3})+)$`)

// ItemizedLineError names the free-text line that could not be parsed.
// Line is 1-based and counts blank lines.
type ItemizedLineError struct {
	Field  string
	Line   int
	Text   string
	Reason string
}

func (e *ItemizedLineError) Error() string {
	return fmt.Sprintf("%s line %d %q: %s", e.Field, e.Line, e.Text, e.Reason)
}

// ParseItems parses "Label:Amount" lines. Blank lines are ignored. The
// split happens on the last ":" so labels may contain colons.
func ParseItems(field, text string) ([]models.PayItem, error) {
	items := []models.PayItem{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lineErr := func(reason string) error {
			return &ItemizedLineError{Field: field, Line: i + 1, Text: line, Reason: reason}
		}

		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			return nil, lineErr(`expected "Label:Amount"`)
		}
		label := strings.TrimSpace(line[:idx])
		amountText := strings.TrimSpace(line[idx+1:])
		if label == "" {
			return nil, lineErr("label is empty")
		}
		if !amountPattern.MatchString(amountText) {
			return nil, lineErr("amount must be a non-negative whole number")
		}
		amount, err := strconv.ParseInt(strings.ReplaceAll(amountText, ",", ""), 10, 64)
		if err != nil {
			return nil, lineErr("amount is too large")
		}
		items = append(items, models.PayItem{Label: label, Amount: amount})
	}
	return items, nil
}

// Breakdown is a computed payslip.
type Breakdown struct {
	Allowances     []models.PayItem
	Deductions     []models.PayItem
	TotalAllowance int64
	TotalDeduction int64
	NetPay         int64
}

// Compute parses both item lists and returns gross + allowances - deductions.
// Any bad line fails the whole computation.
func Compute(gross int64, allowances, deductions string) (Breakdown, error) {
	al, err := ParseItems(FieldAllowances, allowances)
	if err != nil {
		return Breakdown{}, err
	}
	de, err := ParseItems(FieldDeductions, deductions)
	if err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{Allowances: al, Deductions: de}
	for _, it := range al {
		b.TotalAllowance += it.Amount
	}
	for _, it := range de {
		b.TotalDeduction += it.Amount
	}
	b.NetPay = gross + b.TotalAllowance - b.TotalDeduction
	return b, nil
}

// internal/app/system/ledger/overview.go
package ledger

import (
	"sort"

	"github.com/dalemusser/schoolsuite/internal/domain/models"
)

// OverviewMonths is how many of the most recent months an overview keeps.
const OverviewMonths = 12

// MonthTotal is one month's income and expense.
type MonthTotal struct {
	Month   string `json:"month"` // YYYY-MM
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
}

// MonthlyOverview groups entries by the first seven characters of their
// date, sums income and expense per month, and returns the most recent
// OverviewMonths months in ascending order. Entries whose date is shorter
// than seven characters are skipped.
func MonthlyOverview(entries []models.FinancialEntry) []MonthTotal {
	byMonth := make(map[string]*MonthTotal)
	for _, e := range entries {
		if len(e.Date) < 7 {
			continue
		}
		key := e.Date[:7]
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthTotal{Month: key}
			byMonth[key] = mt
		}
		switch e.Type {
		case models.EntryIncome:
			mt.Income += e.Amount
		case models.EntryExpense:
			mt.Expense += e.Amount
		}
	}

	out := make([]MonthTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })

	if len(out) > OverviewMonths {
		out = out[len(out)-OverviewMonths:]
	}
	return out
}

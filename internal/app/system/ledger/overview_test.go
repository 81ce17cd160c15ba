package ledger

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/dalemusser/schoolsuite/internal/domain/models"
)

func entry(date, typ string, amount int64) models.FinancialEntry {
	return models.FinancialEntry{Date: date, Type: typ, Amount: amount}
}

func TestMonthlyOverview_GroupsByMonth(t *testing.T) {
	entries := []models.FinancialEntry{
		entry("2024-02-01", models.EntryIncome, 500),
		entry("2024-01-05", models.EntryIncome, 1000),
		entry("2024-01-20", models.EntryExpense, 400),
	}

	got := MonthlyOverview(entries)
	want := []MonthTotal{
		{Month: "2024-01", Income: 1000, Expense: 400},
		{Month: "2024-02", Income: 500, Expense: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMonthlyOverview_KeepsMostRecentTwelve(t *testing.T) {
	var entries []models.FinancialEntry
	for m := 1; m <= 15; m++ {
		year, month := 2023+(m-1)/12, (m-1)%12+1
		entries = append(entries, entry(fmt.Sprintf("%d-%02d-10", year, month), models.EntryIncome, int64(m)))
	}

	got := MonthlyOverview(entries)
	if len(got) != OverviewMonths {
		t.Fatalf("len = %d, want %d", len(got), OverviewMonths)
	}
	if got[0].Month != "2023-04" {
		t.Errorf("first month = %q, want 2023-04", got[0].Month)
	}
	if got[len(got)-1].Month != "2024-03" {
		t.Errorf("last month = %q, want 2024-03", got[len(got)-1].Month)
	}
}

func TestMonthlyOverview_SkipsShortDates(t *testing.T) {
	entries := []models.FinancialEntry{
		entry("2024", models.EntryIncome, 100),
		entry("", models.EntryExpense, 100),
		entry("2024-03", models.EntryExpense, 250),
	}

	got := MonthlyOverview(entries)
	want := []MonthTotal{{Month: "2024-03", Expense: 250}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestMonthlyOverview_Empty(t *testing.T) {
	got := MonthlyOverview(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

package accounting

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestNewMonth(t *testing.T) {
	if _, err := NewMonth(0, 1, 1, ""); !errors.Is(err, ErrInvalidMonthNr) {
		t.Fatalf("expected ErrInvalidMonthNr, got %v", err)
	}
	if _, err := NewMonth(13, 1, 1, ""); !errors.Is(err, ErrInvalidMonthNr) {
		t.Fatalf("expected ErrInvalidMonthNr, got %v", err)
	}
	m, err := NewMonth(4, 2000.004, -1500.5, "rent raised")
	if err != nil {
		t.Fatal(err)
	}
	if m.Income() != 2000 || m.Expenses() != 1500.5 {
		t.Fatalf("month = %v / %v", m.Income(), m.Expenses())
	}
	if m.Difference() != 499.5 {
		t.Fatalf("difference = %v", m.Difference())
	}
	if math.Abs(m.Percentage()-0.75025) > 1e-9 {
		t.Fatalf("percentage = %v", m.Percentage())
	}
}

func TestYearSumsAndMedians(t *testing.T) {
	y := NewYear(2023)
	incomes := []float64{1000, 3000, 2000}
	for i, v := range incomes {
		if err := y.SetMonth(uint8(i+1), v, v/2); err != nil {
			t.Fatal(err)
		}
	}
	if y.IncomeSum() != 6000 || y.ExpensesSum() != 3000 {
		t.Fatalf("sums = %v / %v", y.IncomeSum(), y.ExpensesSum())
	}
	if y.Difference() != 3000 || y.Percentage() != 0.5 {
		t.Fatalf("difference %v percentage %v", y.Difference(), y.Percentage())
	}
	if y.IncomeMedian() != 2000 {
		t.Fatalf("income median = %v", y.IncomeMedian())
	}
	if err := y.SetMonth(4, 4000, 0); err != nil {
		t.Fatal(err)
	}
	if y.IncomeMedian() != 2500 {
		t.Fatalf("even income median = %v", y.IncomeMedian())
	}
	if y.ExpensesMedian() != 1000 {
		t.Fatalf("expenses median = %v", y.ExpensesMedian())
	}
	if err := y.SetMonth(13, 1, 1); !errors.Is(err, ErrInvalidMonthNr) {
		t.Fatalf("expected ErrInvalidMonthNr, got %v", err)
	}
}

func TestImportMonth(t *testing.T) {
	y := NewYear(2024)
	if err := y.ImportMonth(2, []float64{2500, -12.5, -800.25, 0, 30.1}); err != nil {
		t.Fatal(err)
	}
	m := y.Months[1]
	if m.Income() != 2530.1 || m.Expenses() != 812.75 {
		t.Fatalf("imported month = %v / %v", m.Income(), m.Expenses())
	}
}

func TestAccountingGoal(t *testing.T) {
	a := New()
	a.Goal = 0.8
	y := a.YearOrCreate(2023)
	_ = y.SetMonth(1, 1000, 900)
	if !a.OverGoal(2023) {
		t.Fatal("90% spent should be over an 80% goal")
	}
	if a.OverGoal(1999) {
		t.Fatal("missing year is never over goal")
	}
	if a.YearOrCreate(2023) != y {
		t.Fatal("YearOrCreate must return the existing year")
	}
}

func TestRecurringPerMonth(t *testing.T) {
	tests := []struct {
		name string
		r    Recurring
		want float64
	}{
		{"monthly rent", Recurring{Quantity: 900, Recurrence: EveryMonth, Interval: 1, Frequency: 1}, 900},
		{"yearly insurance", Recurring{Quantity: 120, Recurrence: EveryYear, Interval: 1, Frequency: 1}, 10},
		{"twice a quarter", Recurring{Quantity: 30, Recurrence: EveryMonth, Interval: 3, Frequency: 2}, 20},
		{"zero interval", Recurring{Quantity: 30, Recurrence: EveryDay}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.PerMonth(); got != tc.want {
				t.Fatalf("PerMonth = %v, want %v", got, tc.want)
			}
		})
	}

	a := New()
	a.RecurringIncome = append(a.RecurringIncome, tests[0].r)
	a.RecurringExpenses = append(a.RecurringExpenses, tests[1].r)
	if got := a.RecurringPerMonth(); got != 890 {
		t.Fatalf("RecurringPerMonth = %v", got)
	}
}

func TestAccountingYAMLRoundTrip(t *testing.T) {
	a := New()
	a.Goal = 0.65
	_ = a.YearOrCreate(2022).SetMonth(12, 3100.2, 2999.99)
	a.YearOrCreate(2023).Months[0].Note = "bonus"
	a.RecurringExpenses = append(a.RecurringExpenses, Recurring{Name: "gym", Quantity: 25, Recurrence: EveryWeek, Interval: 4, Frequency: 1})

	out, err := yaml.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	var back Accounting
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v\n%s", err, out)
	}
	if diff := cmp.Diff(*a, back, cmp.AllowUnexported(Accounting{}, Month{})); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

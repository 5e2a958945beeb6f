package accounting

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"finanzbuch/internal/core"
)

// Month is the income and expenses of one calendar month. Both values are
// stored as absolute amounts rounded to cents.
type Month struct {
	nr       uint8
	income   float64
	expenses float64
	Note     string
}

func NewMonth(nr uint8, income, expenses float64, note string) (Month, error) {
	if nr < 1 || nr > 12 {
		return Month{}, fmt.Errorf("%w: %d", ErrInvalidMonthNr, nr)
	}
	return Month{
		nr:       nr,
		income:   core.RoundMonetaryAbs(income),
		expenses: core.RoundMonetaryAbs(expenses),
		Note:     note,
	}, nil
}

func (m Month) Nr() uint8         { return m.nr }
func (m Month) Income() float64   { return m.income }
func (m Month) Expenses() float64 { return m.expenses }

func (m *Month) SetIncome(v float64)   { m.income = core.RoundMonetaryAbs(v) }
func (m *Month) SetExpenses(v float64) { m.expenses = core.RoundMonetaryAbs(v) }

// Difference is income minus expenses.
func (m Month) Difference() float64 { return core.RoundMonetary(m.income - m.expenses) }

// Percentage is expenses over income, 1.0 = 100%. It is 0 without income.
func (m Month) Percentage() float64 {
	if m.income == 0 {
		return 0
	}
	return m.expenses / m.income
}

func (m Month) isZero() bool {
	return m.income == 0 && m.expenses == 0 && m.Note == ""
}

type monthDoc struct {
	Nr       uint8   `yaml:"month_nr"`
	Income   float64 `yaml:"income"`
	Expenses float64 `yaml:"expenses"`
	Note     string  `yaml:"note"`
}

func (m Month) MarshalYAML() (interface{}, error) {
	return monthDoc{Nr: m.nr, Income: m.income, Expenses: m.expenses, Note: m.Note}, nil
}

func (m *Month) UnmarshalYAML(value *yaml.Node) error {
	var doc monthDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	month, err := NewMonth(doc.Nr, doc.Income, doc.Expenses, doc.Note)
	if err != nil {
		return err
	}
	*m = month
	return nil
}

// Year holds twelve months; Months[i].Nr() == i+1.
type Year struct {
	Nr     uint16
	Months [12]Month
}

func NewYear(nr uint16) *Year {
	y := &Year{Nr: nr}
	for i := range y.Months {
		y.Months[i] = Month{nr: uint8(i + 1)}
	}
	return y
}

// Month returns the slot for nr (1-12).
func (y *Year) Month(nr uint8) (*Month, error) {
	if nr < 1 || nr > 12 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonthNr, nr)
	}
	return &y.Months[nr-1], nil
}

// SetMonth overwrites income and expenses of month nr. Replaced values are
// logged so they can be recovered by hand.
func (y *Year) SetMonth(nr uint8, income, expenses float64) error {
	m, err := y.Month(nr)
	if err != nil {
		return err
	}
	if !m.isZero() {
		slog.Info("Overwriting accounting month",
			"year", y.Nr,
			"month", nr,
			"old_income", m.income,
			"old_expenses", m.expenses)
	}
	m.SetIncome(income)
	m.SetExpenses(expenses)
	return nil
}

// ImportMonth books a list of signed transactions into month nr: positive
// values sum up to the income, negative ones to the expenses.
func (y *Year) ImportMonth(nr uint8, values []float64) error {
	income, expenses := decimal.Zero, decimal.Zero
	for _, v := range values {
		switch {
		case v > 0:
			income = income.Add(decimal.NewFromFloat(v))
		case v < 0:
			expenses = expenses.Add(decimal.NewFromFloat(v))
		}
	}
	return y.SetMonth(nr, income.InexactFloat64(), expenses.Abs().InexactFloat64())
}

func (y *Year) IncomeSum() float64 {
	return y.sum(func(m Month) float64 { return m.income })
}

func (y *Year) ExpensesSum() float64 {
	return y.sum(func(m Month) float64 { return m.expenses })
}

func (y *Year) Difference() float64 {
	return core.RoundMonetary(y.IncomeSum() - y.ExpensesSum())
}

// Percentage is the yearly expenses over the yearly income.
func (y *Year) Percentage() float64 {
	income := y.IncomeSum()
	if income == 0 {
		return 0
	}
	return y.ExpensesSum() / income
}

// IncomeMedian is the median over months that have any income.
func (y *Year) IncomeMedian() float64 {
	return y.median(func(m Month) float64 { return m.income })
}

// ExpensesMedian is the median over months that have any expenses.
func (y *Year) ExpensesMedian() float64 {
	return y.median(func(m Month) float64 { return m.expenses })
}

func (y *Year) sum(field func(Month) float64) float64 {
	total := decimal.Zero
	for _, m := range y.Months {
		total = total.Add(decimal.NewFromFloat(field(m)))
	}
	return total.Round(2).InexactFloat64()
}

func (y *Year) median(field func(Month) float64) float64 {
	values := make([]decimal.Decimal, 0, len(y.Months))
	for _, m := range y.Months {
		if v := field(m); v != 0 {
			values = append(values, decimal.NewFromFloat(v))
		}
	}
	if len(values) == 0 {
		return 0
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid].InexactFloat64()
	}
	return values[mid-1].Add(values[mid]).Div(decimal.NewFromInt(2)).Round(2).InexactFloat64()
}

type yearDoc struct {
	Nr     uint16  `yaml:"year_nr"`
	Months []Month `yaml:"months"`
}

func (y Year) MarshalYAML() (interface{}, error) {
	return yearDoc{Nr: y.Nr, Months: y.Months[:]}, nil
}

func (y *Year) UnmarshalYAML(value *yaml.Node) error {
	var doc yearDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	if len(doc.Months) != 12 {
		return fmt.Errorf("accounting year %d: expected 12 months, got %d", doc.Nr, len(doc.Months))
	}
	out := Year{Nr: doc.Nr}
	for i, m := range doc.Months {
		if int(m.Nr()) != i+1 {
			return fmt.Errorf("accounting year %d: month at position %d has number %d", doc.Nr, i+1, m.Nr())
		}
		out.Months[i] = m
	}
	*y = out
	return nil
}

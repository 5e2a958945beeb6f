// Package accounting keeps monthly income and expenses per year.
package accounting

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"finanzbuch/internal/core"
)

var (
	ErrInvalidMonthNr = errors.New("month number out of range")
	ErrUnknownPeriod  = errors.New("unknown recurrence period")
)

// DefaultGoal is the share of income a user plans to spend, 1.0 = 100%.
const DefaultGoal = 1.0

// Accounting is the accounting block of the document.
type Accounting struct {
	Goal              float64
	history           map[uint16]*Year
	RecurringIncome   []Recurring
	RecurringExpenses []Recurring
}

func New() *Accounting {
	return &Accounting{
		Goal:              DefaultGoal,
		history:           make(map[uint16]*Year),
		RecurringIncome:   []Recurring{},
		RecurringExpenses: []Recurring{},
	}
}

// Year returns the year nr if it exists.
func (a *Accounting) Year(nr uint16) (*Year, bool) {
	y, ok := a.history[nr]
	return y, ok
}

// YearOrCreate returns the year nr, adding an empty one first if needed.
func (a *Accounting) YearOrCreate(nr uint16) *Year {
	if a.history == nil {
		a.history = make(map[uint16]*Year)
	}
	y, ok := a.history[nr]
	if !ok {
		y = NewYear(nr)
		a.history[nr] = y
	}
	return y
}

// Years returns the year numbers in ascending order.
func (a *Accounting) Years() []uint16 {
	out := make([]uint16, 0, len(a.history))
	for nr := range a.history {
		out = append(out, nr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OverGoal reports whether the expenses of year nr exceed Goal times its income.
func (a *Accounting) OverGoal(nr uint16) bool {
	y, ok := a.history[nr]
	if !ok {
		return false
	}
	return y.Percentage() > a.Goal
}

// RecurringPerMonth is the monthly balance of all recurring items.
func (a *Accounting) RecurringPerMonth() float64 {
	var sum float64
	for _, r := range a.RecurringIncome {
		sum += r.PerMonth()
	}
	for _, r := range a.RecurringExpenses {
		sum -= r.PerMonth()
	}
	return core.RoundMonetary(sum)
}

// Clone returns a deep copy.
func (a *Accounting) Clone() *Accounting {
	out := &Accounting{
		Goal:              a.Goal,
		history:           make(map[uint16]*Year, len(a.history)),
		RecurringIncome:   append([]Recurring{}, a.RecurringIncome...),
		RecurringExpenses: append([]Recurring{}, a.RecurringExpenses...),
	}
	for nr, y := range a.history {
		c := *y
		out.history[nr] = &c
	}
	return out
}

type accountingDoc struct {
	Goal              float64          `yaml:"goal"`
	History           map[uint16]*Year `yaml:"history"`
	RecurringIncome   []Recurring      `yaml:"recurring_income"`
	RecurringExpenses []Recurring      `yaml:"recurring_expenses"`
}

func (a Accounting) MarshalYAML() (interface{}, error) {
	doc := accountingDoc{
		Goal:              a.Goal,
		History:           a.history,
		RecurringIncome:   a.RecurringIncome,
		RecurringExpenses: a.RecurringExpenses,
	}
	if doc.History == nil {
		doc.History = map[uint16]*Year{}
	}
	if doc.RecurringIncome == nil {
		doc.RecurringIncome = []Recurring{}
	}
	if doc.RecurringExpenses == nil {
		doc.RecurringExpenses = []Recurring{}
	}
	return doc, nil
}

func (a *Accounting) UnmarshalYAML(value *yaml.Node) error {
	doc := accountingDoc{Goal: DefaultGoal}
	if err := value.Decode(&doc); err != nil {
		return err
	}
	for nr, y := range doc.History {
		if y == nil || y.Nr != nr {
			return fmt.Errorf("accounting history key %d does not match its year", nr)
		}
	}
	if doc.History == nil {
		doc.History = make(map[uint16]*Year)
	}
	if doc.RecurringIncome == nil {
		doc.RecurringIncome = []Recurring{}
	}
	if doc.RecurringExpenses == nil {
		doc.RecurringExpenses = []Recurring{}
	}
	*a = Accounting{
		Goal:              doc.Goal,
		history:           doc.History,
		RecurringIncome:   doc.RecurringIncome,
		RecurringExpenses: doc.RecurringExpenses,
	}
	return nil
}

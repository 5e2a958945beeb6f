package investing

import (
	"math"

	"github.com/shopspring/decimal"

	"finanzbuch/internal/core"
)

// LedgerRow is one month of an entry, or of the whole depot.
type LedgerRow struct {
	Date       core.Date `json:"date"`
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	Value      float64   `json:"value"`
	Additional float64   `json:"additional"`
	Planned    float64   `json:"planned"`
	Combined   float64   `json:"combined"`
}

// EntryLedger holds the rows of a single entry.
type EntryLedger struct {
	Key  uint64      `json:"key,string"`
	Name string      `json:"name"`
	Rows []LedgerRow `json:"rows"`
}

// Prognosis projects the depot value with a fixed yearly growth rate.
type Prognosis struct {
	Rate   GrowthRate `json:"rate"`
	Values []float64  `json:"values"`
}

// Ledger is the month-by-month view of the depot over its span.
type Ledger struct {
	Span        Span          `json:"span"`
	Entries     []EntryLedger `json:"entries"`
	Totals      []LedgerRow   `json:"totals"`
	Comparisons []Prognosis   `json:"comparisons"`
}

// Ledger returns one row per month of span. Months of years missing from
// the history read as zero; planned amounts come from the savings plan.
func (e *Entry) Ledger(span Span) []LedgerRow {
	rows := make([]LedgerRow, 0, span.Months)
	date := span.Start
	for i := 0; i < span.Months; i++ {
		row := LedgerRow{
			Date:    date,
			Planned: e.PlannedFor(date),
		}
		if y, ok := e.History.Get(date.Year()); ok {
			m := y.Months[date.Month()-1]
			row.Price = m.PricePerUnit()
			row.Amount = m.Amount()
			row.Value = core.RoundMonetary(m.Value())
			row.Additional = m.AdditionalTransactions()
		}
		row.Combined = core.RoundMonetary(row.Additional + row.Planned)
		rows = append(rows, row)
		date = date.NextMonth()
	}
	return rows
}

// Ledger computes the rows of every entry, the depot totals per month and
// one prognosis per comparison rate. It reports false when the depot has no
// history.
func (inv *Investing) Ledger(clock core.Clock) (Ledger, bool) {
	span, ok := inv.Depot.Span(clock)
	if !ok {
		return Ledger{}, false
	}

	out := Ledger{Span: span}
	value := make([]decimal.Decimal, span.Months)
	additional := make([]decimal.Decimal, span.Months)
	planned := make([]decimal.Decimal, span.Months)

	for _, key := range inv.Depot.Keys() {
		e := inv.Depot.entries[key]
		rows := e.Ledger(span)
		for i, r := range rows {
			value[i] = value[i].Add(decimal.NewFromFloat(r.Value))
			additional[i] = additional[i].Add(decimal.NewFromFloat(r.Additional))
			planned[i] = planned[i].Add(decimal.NewFromFloat(r.Planned))
		}
		out.Entries = append(out.Entries, EntryLedger{Key: key, Name: e.Name(), Rows: rows})
	}

	out.Totals = make([]LedgerRow, span.Months)
	date := span.Start
	for i := range out.Totals {
		out.Totals[i] = LedgerRow{
			Date:       date,
			Value:      value[i].Round(2).InexactFloat64(),
			Additional: additional[i].Round(2).InexactFloat64(),
			Planned:    planned[i].Round(2).InexactFloat64(),
			Combined:   additional[i].Add(planned[i]).Round(2).InexactFloat64(),
		}
		date = date.NextMonth()
	}

	for _, rate := range inv.Comparisons {
		out.Comparisons = append(out.Comparisons, Project(out.Totals, rate))
	}
	return out, true
}

// Project starts at the value of the first row and, for every following
// month, compounds the previous value by the monthly share of rate and adds
// that month's combined transactions.
func Project(rows []LedgerRow, rate GrowthRate) Prognosis {
	p := Prognosis{Rate: rate, Values: make([]float64, len(rows))}
	if len(rows) == 0 {
		return p
	}
	factor := decimal.NewFromFloat(math.Pow(1+float64(rate)/100, 1.0/12))
	current := decimal.NewFromFloat(rows[0].Value)
	p.Values[0] = current.Round(2).InexactFloat64()
	for k := 1; k < len(rows); k++ {
		current = current.Mul(factor).Add(decimal.NewFromFloat(rows[k].Combined))
		p.Values[k] = current.Round(2).InexactFloat64()
	}
	return p
}

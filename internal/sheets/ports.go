package sheets

import (
	"context"
	"fmt"

	"finanzbuch/internal/investing"
)

// Ports for outbound adapters.
type (
	// LedgerWriter replaces the exported copy of the depot ledger.
	LedgerWriter interface {
		WriteLedger(ctx context.Context, l investing.Ledger) (ref string, err error)
	}
)

// Header is the first row of an exported ledger, before the prognosis columns.
var Header = []string{"Date", "Entry", "Price", "Amount", "Value", "Additional", "Planned", "Combined"}

// TotalLabel names the depot-wide rows in the Entry column.
const TotalLabel = "Total"

// Rows flattens l into a table: the header, every entry's months, then the
// depot totals. Each comparison rate adds a column filled on total rows.
func Rows(l investing.Ledger) [][]any {
	header := make([]any, 0, len(Header)+len(l.Comparisons))
	for _, h := range Header {
		header = append(header, h)
	}
	for _, p := range l.Comparisons {
		header = append(header, fmt.Sprintf("Prognosis %d%%", p.Rate))
	}

	out := [][]any{header}
	for _, e := range l.Entries {
		for _, r := range e.Rows {
			out = append(out, row(e.Name, r))
		}
	}
	for i, r := range l.Totals {
		cells := row(TotalLabel, r)
		for _, p := range l.Comparisons {
			if i < len(p.Values) {
				cells = append(cells, p.Values[i])
			} else {
				cells = append(cells, "")
			}
		}
		out = append(out, cells)
	}
	return out
}

func row(name string, r investing.LedgerRow) []any {
	return []any{r.Date.String(), name, r.Price, r.Amount, r.Value, r.Additional, r.Planned, r.Combined}
}

package sheets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"finanzbuch/internal/core"
	"finanzbuch/internal/investing"
)

func TestRows(t *testing.T) {
	jan := core.MustDate(2023, 1, 1)
	feb := core.MustDate(2023, 2, 1)
	l := investing.Ledger{
		Entries: []investing.EntryLedger{{
			Key:  1,
			Name: "World",
			Rows: []investing.LedgerRow{
				{Date: jan, Price: 10, Amount: 2, Value: 20, Planned: 50, Combined: 50},
				{Date: feb, Price: 11, Amount: 2, Value: 22},
			},
		}},
		Totals: []investing.LedgerRow{
			{Date: jan, Value: 20, Planned: 50, Combined: 50},
			{Date: feb, Value: 22},
		},
		Comparisons: []investing.Prognosis{{Rate: 7, Values: []float64{20, 20.11}}},
	}

	got := Rows(l)
	want := [][]any{
		{"Date", "Entry", "Price", "Amount", "Value", "Additional", "Planned", "Combined", "Prognosis 7%"},
		{"2023-01-01", "World", 10.0, 2.0, 20.0, 0.0, 50.0, 50.0},
		{"2023-02-01", "World", 11.0, 2.0, 22.0, 0.0, 0.0, 0.0},
		{"2023-01-01", "Total", 0.0, 0.0, 20.0, 0.0, 50.0, 50.0, 20.0},
		{"2023-02-01", "Total", 0.0, 0.0, 22.0, 0.0, 0.0, 0.0, 20.11},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestRowsEmptyLedger(t *testing.T) {
	got := Rows(investing.Ledger{})
	if len(got) != 1 || len(got[0]) != len(Header) {
		t.Fatalf("expected header only, got %v", got)
	}
}

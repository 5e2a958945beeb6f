package memory

import (
	"context"
	"testing"

	"finanzbuch/internal/core"
	"finanzbuch/internal/investing"
)

func TestMemoryStoreWriteLedger(t *testing.T) {
	s := New()
	if s.Last() != nil || s.Count() != 0 {
		t.Fatal("new store should be empty")
	}

	l := investing.Ledger{
		Totals: []investing.LedgerRow{{Date: core.MustDate(2023, 1, 1), Value: 12.5}},
	}
	ref, err := s.WriteLedger(context.Background(), l)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected write: ref=%q err=%v", ref, err)
	}
	ref, _ = s.WriteLedger(context.Background(), l)
	if ref != "mem:2" || s.Count() != 2 {
		t.Fatalf("unexpected second write: ref=%q count=%d", ref, s.Count())
	}

	last := s.Last()
	if len(last) != 2 || last[1][1] != "Total" || last[1][4] != 12.5 {
		t.Fatalf("unexpected export: %v", last)
	}
}

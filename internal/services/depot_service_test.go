package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"finanzbuch/internal/amqp"
	"finanzbuch/internal/core"
	"finanzbuch/internal/csvimport"
	"finanzbuch/internal/datafile"
	"finanzbuch/internal/investing"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.DepotChangedMessage
	err  error
}

func (p *fakePublisher) PublishDepotChanged(_ context.Context, msg *amqp.DepotChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *fakePublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.msgs {
		out = append(out, m.Op)
	}
	return out
}

var testClock = core.FixedClock{Year: 2023, Month: 6}

func newTestService(t *testing.T) (*DepotService, *fakePublisher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), datafile.FileName)
	store, err := datafile.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	pub := &fakePublisher{}
	return NewDepotService(store, testClock, pub), pub, path
}

func TestCreateAndRemoveEntry(t *testing.T) {
	svc, pub, path := newTestService(t)
	ctx := context.Background()

	key, err := svc.CreateEntry(ctx, "  World ETF ", investing.Etf)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if key != investing.NameToKey("World ETF") {
		t.Fatalf("key = %d, want hash of trimmed name", key)
	}
	if _, err := svc.CreateEntry(ctx, "World ETF", investing.Stock); !errors.Is(err, ErrEntryExists) {
		t.Fatalf("expected ErrEntryExists, got %v", err)
	}
	if _, err := svc.CreateEntry(ctx, " ", investing.Stock); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	d, err := svc.Entry(key)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "World ETF" || len(d.History) != 1 || d.History[0].Year != 2023 || len(d.History[0].Months) != 12 {
		t.Fatalf("unexpected detail: %+v", d)
	}

	// written through to disk
	onDisk, err := datafile.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := onDisk.Investing.Depot.GetByKey(key); !ok {
		t.Fatal("entry missing from written document")
	}

	if err := svc.RemoveEntry(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveEntry(ctx, key); !errors.Is(err, investing.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if got := strings.Join(pub.ops(), ","); got != "upsert,remove" {
		t.Fatalf("published ops = %s", got)
	}
}

func TestSectionsThroughService(t *testing.T) {
	svc, pub, _ := newTestService(t)
	ctx := context.Background()
	key, _ := svc.CreateEntry(ctx, "Bonds", investing.Bond)

	first := investing.Section{Start: core.MustDate(2023, 1, 1), End: core.MustDate(2023, 12, 31), Amount: 50, Interval: investing.Monthly}
	if _, err := svc.AddSection(ctx, key, first); err != nil {
		t.Fatal(err)
	}

	clash := investing.Section{Start: core.MustDate(2023, 12, 31), End: core.MustDate(2024, 6, 30), Amount: 10, Interval: investing.Monthly}
	_, err := svc.AddSection(ctx, key, clash)
	var overlap *investing.OverlapError
	if !errors.As(err, &overlap) || overlap.Existing != first {
		t.Fatalf("expected overlap with %v, got %v", first, err)
	}

	bad := investing.Section{Start: core.MustDate(2025, 1, 1), End: core.MustDate(2025, 1, 1), Amount: 10}
	if _, err := svc.AddSection(ctx, key, bad); !errors.Is(err, investing.ErrMalformedSection) {
		t.Fatalf("expected ErrMalformedSection, got %v", err)
	}

	planned, err := svc.PlannedFor(key, core.MustDate(2023, 3, 1))
	if err != nil || planned != 50 {
		t.Fatalf("planned = %v, %v", planned, err)
	}

	annual := investing.Section{Start: core.MustDate(2024, 3, 15), End: core.MustDate(2024, 7, 20), Amount: 120, Interval: investing.Annually}
	stored, err := svc.AddSection(ctx, key, annual)
	if err != nil {
		t.Fatal(err)
	}
	if want := core.MustDate(2025, 3, 15); stored.End != want {
		t.Fatalf("stored end = %s, want %s", stored.End, want)
	}
	d, _ := svc.Entry(key)
	if d.SavingsPlan[len(d.SavingsPlan)-1] != stored {
		t.Fatalf("returned %s, plan holds %v", stored, d.SavingsPlan)
	}

	removed, err := svc.RemoveSection(ctx, key, first.Start)
	if err != nil || removed != first {
		t.Fatalf("removed %v, %v", removed, err)
	}
	if d, _ := svc.Entry(key); len(d.SavingsPlan) != 0 {
		t.Fatalf("plan not empty: %v", d.SavingsPlan)
	}

	// create, add, remove; failed mutations publish nothing
	if n := len(pub.ops()); n != 3 {
		t.Fatalf("published %d events, want 3", n)
	}
}

func TestYearsAndMonthValues(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	key, _ := svc.CreateEntry(ctx, "Gold", investing.Commodity)

	year, err := svc.AddYear(ctx, key, 0)
	if err != nil || year != 2022 {
		t.Fatalf("previous year = %d, %v", year, err)
	}
	if _, err := svc.AddYear(ctx, key, 2023); !errors.Is(err, ErrYearExists) {
		t.Fatalf("expected ErrYearExists, got %v", err)
	}
	if year, err := svc.AddYear(ctx, key, 2025); err != nil || year != 2025 {
		t.Fatalf("add 2025 = %d, %v", year, err)
	}

	stored, err := svc.SetMonthValue(ctx, key, 2022, 3, investing.FieldPricePerUnit, "€ -1.234,5")
	if err == nil {
		t.Fatalf("expected parse error for thousands separator, stored %v", stored)
	}
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	stored, err = svc.SetMonthValue(ctx, key, 2022, 3, investing.FieldPricePerUnit, "€ -31,456")
	if err != nil || stored != 31.46 {
		t.Fatalf("stored = %v, %v", stored, err)
	}
	if _, err := svc.SetMonthValue(ctx, key, 2021, 3, investing.FieldAmount, "1"); !errors.Is(err, investing.ErrYearNotFound) {
		t.Fatalf("expected ErrYearNotFound, got %v", err)
	}
	if _, err := svc.SetMonthValue(ctx, key, 2022, 13, investing.FieldAmount, "1"); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestEnsureUniformAndLedger(t *testing.T) {
	svc, pub, _ := newTestService(t)
	ctx := context.Background()

	if _, ok := svc.Ledger(); ok {
		t.Fatal("empty depot should have no ledger")
	}

	a, _ := svc.CreateEntry(ctx, "A", investing.Etf)
	b, _ := svc.CreateEntry(ctx, "B", investing.Fund)
	if _, err := svc.AddYear(ctx, a, 2021); err != nil {
		t.Fatal(err)
	}

	added, err := svc.EnsureUniform(ctx)
	if err != nil || added != 3 {
		t.Fatalf("added = %d, %v", added, err)
	}
	rev := svc.Revision()
	if added, err := svc.EnsureUniform(ctx); err != nil || added != 0 {
		t.Fatalf("second pass added = %d, %v", added, err)
	}
	if svc.Revision() != rev {
		t.Fatal("no-op pass must not write")
	}
	if d, _ := svc.Entry(b); len(d.History) != 3 {
		t.Fatalf("B history = %d years", len(d.History))
	}

	span, ok := svc.Span()
	if !ok || span.Months != 30 {
		t.Fatalf("span = %+v, %v", span, ok)
	}

	if err := svc.AddComparison(ctx, 5); err != nil {
		t.Fatal(err)
	}
	l, ok := svc.Ledger()
	if !ok || len(l.Entries) != 2 || len(l.Totals) != 30 || len(l.Comparisons) != 1 {
		t.Fatalf("unexpected ledger: ok=%v entries=%d totals=%d comparisons=%d",
			ok, len(l.Entries), len(l.Totals), len(l.Comparisons))
	}

	ops := pub.ops()
	if ops[len(ops)-1] != amqp.OpDepot {
		t.Fatalf("last op = %s, want %s", ops[len(ops)-1], amqp.OpDepot)
	}
}

func TestImportColumn(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	key, _ := svc.CreateEntry(ctx, "Crypto", investing.Crypto)

	table, err := csvimport.Read(strings.NewReader("Date;Price\n01.10.;1,50\n01.11.;2\n01.12.;2,5\n01.01.;3\n"))
	if err != nil {
		t.Fatal(err)
	}

	n, err := svc.ImportColumn(ctx, key, table, 1, 2022, 10, investing.FieldPricePerUnit)
	if err != nil || n != 3 {
		t.Fatalf("imported %d, %v", n, err)
	}
	d, _ := svc.Entry(key)
	var months []MonthView
	for _, y := range d.History {
		if y.Year == 2022 {
			months = y.Months
		}
	}
	if months == nil {
		t.Fatal("year 2022 not created")
	}
	if months[9].PricePerUnit != 1.5 || months[10].PricePerUnit != 2 || months[11].PricePerUnit != 2.5 {
		t.Fatalf("unexpected prices: %+v", months[9:])
	}

	if _, err := svc.ImportColumn(ctx, key, table, 5, 2022, 1, investing.FieldAmount); !errors.Is(err, csvimport.ErrColumnMissing) {
		t.Fatalf("expected ErrColumnMissing, got %v", err)
	}
	if _, err := svc.ImportColumn(ctx, key, table, 1, 2022, 0, investing.FieldAmount); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	svc, pub, _ := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.CreateEntry(context.Background(), "Resilient", investing.Stock); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestKeyOf(t *testing.T) {
	svc, _, _ := newTestService(t)
	key, _ := svc.CreateEntry(context.Background(), "Named", investing.Stock)
	if got, err := svc.KeyOf("Named"); err != nil || got != key {
		t.Fatalf("KeyOf = %d, %v", got, err)
	}
	if _, err := svc.KeyOf("Other"); !errors.Is(err, investing.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	if name, err := svc.NameOf(key); err != nil || name != "Named" {
		t.Fatalf("NameOf = %q, %v", name, err)
	}
	if _, err := svc.NameOf(key + 1); !errors.Is(err, investing.ErrEntryNotFound) {
		t.Fatalf("NameOf unknown key: %v", err)
	}
}

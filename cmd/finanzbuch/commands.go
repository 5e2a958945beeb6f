package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"finanzbuch/internal/core"
	"finanzbuch/internal/csvimport"
	"finanzbuch/internal/investing"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parse parses args and fails when one of required was left empty.
func parse(fs *flag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	for _, name := range required {
		if fs.Lookup(name).Value.String() == "" {
			return fmt.Errorf("%s: -%s is required", fs.Name(), name)
		}
	}
	return nil
}

func (a *app) key(name string) (uint64, error) {
	return a.depot.KeyOf(name)
}

func cmdEntries(_ context.Context, a *app, args []string) error {
	if err := parse(newFlags("entries"), args); err != nil {
		return err
	}
	entries := a.depot.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, muted.Render("The depot has no entries."))
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Variant.String(), strconv.FormatUint(e.Key, 10)})
	}
	fmt.Fprintln(a.out, renderTable([]string{"Name", "Variant", "Key"}, rows, nil))
	return nil
}

func cmdAddEntry(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add-entry")
	name := fs.String("name", "", "entry name")
	variant := fs.String("variant", "", "Stock, Fund, Etf, Bond, Option, Commodity or Crypto")
	if err := parse(fs, args, "name", "variant"); err != nil {
		return err
	}
	v, err := investing.ParseVariant(*variant)
	if err != nil {
		return err
	}
	if _, err := a.depot.CreateEntry(ctx, *name, v); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s (%s)\n", *name, v)
	return nil
}

func cmdRemoveEntry(ctx context.Context, a *app, args []string) error {
	fs := newFlags("remove-entry")
	name := fs.String("name", "", "entry name")
	if err := parse(fs, args, "name"); err != nil {
		return err
	}
	key, err := a.key(*name)
	if err != nil {
		return err
	}
	if err := a.depot.RemoveEntry(ctx, key); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s\n", *name)
	return nil
}

func cmdAddSection(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add-section")
	entry := fs.String("entry", "", "entry name")
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", "", "last day, YYYY-MM-DD")
	amount := fs.String("amount", "", "contribution per interval, negative for withdrawals")
	interval := fs.String("interval", "monthly", "monthly or annually")
	if err := parse(fs, args, "entry", "start", "end", "amount"); err != nil {
		return err
	}

	var (
		section investing.Section
		err     error
	)
	if section.Start, err = core.ParseDate(*start); err != nil {
		return err
	}
	if section.End, err = core.ParseDate(*end); err != nil {
		return err
	}
	if section.Amount, err = core.ParseMonetary(*amount, false); err != nil {
		return err
	}
	if section.Interval, err = investing.ParseInterval(*interval); err != nil {
		return err
	}
	key, err := a.key(*entry)
	if err != nil {
		return err
	}

	stored, err := a.depot.AddSection(ctx, key, section)
	var overlap *investing.OverlapError
	if errors.As(err, &overlap) {
		fmt.Fprintln(a.out, warn.Render("The new section overlaps an existing one:"))
		fmt.Fprintln(a.out, renderSections([]investing.Section{overlap.Existing}))
		fmt.Fprintf(a.out, "Edit it with: finanzbuch remove-section -entry %q -start %s, then add the changed section.\n",
			*entry, overlap.Existing.Start)
		return err
	}
	if err != nil {
		return err
	}
	if stored.End != section.End {
		fmt.Fprintln(a.out, muted.Render("Annual sections end on their start day, end moved to "+stored.End.String()+"."))
	}
	fmt.Fprintf(a.out, "Added section %s\n", stored)
	return nil
}

func cmdRemoveSection(ctx context.Context, a *app, args []string) error {
	fs := newFlags("remove-section")
	entry := fs.String("entry", "", "entry name")
	start := fs.String("start", "", "first day of the section, YYYY-MM-DD")
	if err := parse(fs, args, "entry", "start"); err != nil {
		return err
	}
	date, err := core.ParseDate(*start)
	if err != nil {
		return err
	}
	key, err := a.key(*entry)
	if err != nil {
		return err
	}
	removed, err := a.depot.RemoveSection(ctx, key, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed section %s\n", removed)
	return nil
}

func cmdPlan(_ context.Context, a *app, args []string) error {
	fs := newFlags("plan")
	entry := fs.String("entry", "", "entry name")
	at := fs.String("date", "", "show the planned amount for this day, YYYY-MM-DD")
	if err := parse(fs, args, "entry"); err != nil {
		return err
	}
	key, err := a.key(*entry)
	if err != nil {
		return err
	}

	if *at != "" {
		date, err := core.ParseDate(*at)
		if err != nil {
			return err
		}
		planned, err := a.depot.PlannedFor(key, date)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s planned for %s: %s\n", *entry, date, money(planned))
		return nil
	}

	d, err := a.depot.Entry(key)
	if err != nil {
		return err
	}
	if len(d.SavingsPlan) == 0 {
		fmt.Fprintln(a.out, muted.Render(*entry+" has no savings plan."))
		return nil
	}
	fmt.Fprintln(a.out, renderSections(d.SavingsPlan))
	return nil
}

func cmdAddYear(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add-year")
	entry := fs.String("entry", "", "entry name")
	year := fs.Uint("year", 0, "year to add; the year before the earliest when omitted")
	if err := parse(fs, args, "entry"); err != nil {
		return err
	}
	if *year > 0xFFFF {
		return fmt.Errorf("add-year: year %d out of range", *year)
	}
	key, err := a.key(*entry)
	if err != nil {
		return err
	}
	added, err := a.depot.AddYear(ctx, key, uint16(*year))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %d to %s\n", added, *entry)
	return nil
}

func cmdSetMonth(ctx context.Context, a *app, args []string) error {
	fs := newFlags("set-month")
	entry := fs.String("entry", "", "entry name")
	year := fs.Uint("year", 0, "year")
	month := fs.Uint("month", 0, "month, 1-12")
	field := fs.String("field", "", "amount, price_per_unit or additional_transactions")
	value := fs.String("value", "", "monetary value")
	if err := parse(fs, args, "entry", "field", "value"); err != nil {
		return err
	}
	if *year == 0 || *year > 0xFFFF {
		return errors.New("set-month: -year is required")
	}
	if *month < 1 || *month > 12 {
		return fmt.Errorf("set-month: %w: %d", core.ErrInvalidMonth, *month)
	}
	f, err := investing.ParseMonthField(*field)
	if err != nil {
		return err
	}
	key, err := a.key(*entry)
	if err != nil {
		return err
	}
	stored, err := a.depot.SetMonthValue(ctx, key, uint16(*year), uint8(*month), f, *value)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %04d-%02d %s = %s\n", *entry, *year, *month, f, money(stored))
	return nil
}

func cmdImportCSV(ctx context.Context, a *app, args []string) error {
	fs := newFlags("import-csv")
	entry := fs.String("entry", "", "entry name")
	file := fs.String("file", "", "CSV file, ';' separated with a header row")
	column := fs.String("column", "", "header name or zero-based column index")
	year := fs.Uint("year", 0, "year to write into")
	fromMonth := fs.Uint("from-month", 1, "month of the first row")
	field := fs.String("field", "", "amount, price_per_unit or additional_transactions")
	if err := parse(fs, args, "entry", "file", "column", "field"); err != nil {
		return err
	}
	if *year == 0 || *year > 0xFFFF {
		return errors.New("import-csv: -year is required")
	}
	if *fromMonth > 12 {
		return fmt.Errorf("import-csv: %w: %d", core.ErrInvalidMonth, *fromMonth)
	}
	f, err := investing.ParseMonthField(*field)
	if err != nil {
		return err
	}
	key, err := a.key(*entry)
	if err != nil {
		return err
	}
	table, err := csvimport.ReadFile(*file)
	if err != nil {
		return err
	}
	index, ok := table.ColumnIndex(*column)
	if !ok {
		if index, err = strconv.Atoi(*column); err != nil {
			return fmt.Errorf("%w: no header %q", csvimport.ErrColumnMissing, *column)
		}
	}
	n, err := a.depot.ImportColumn(ctx, key, table, index, uint16(*year), uint8(*fromMonth), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d months of %q into %s %d\n", n, table.Header[index], *entry, *year)
	return nil
}

func cmdUniform(ctx context.Context, a *app, args []string) error {
	if err := parse(newFlags("uniform"), args); err != nil {
		return err
	}
	added, err := a.depot.EnsureUniform(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %d years\n", added)
	return nil
}

func cmdLedger(_ context.Context, a *app, args []string) error {
	fs := newFlags("ledger")
	all := fs.Bool("all", false, "show every entry's rows, not only the totals")
	if err := parse(fs, args); err != nil {
		return err
	}
	l, ok := a.depot.Ledger()
	if !ok {
		fmt.Fprintln(a.out, muted.Render("The depot has no history."))
		return nil
	}
	fmt.Fprintf(a.out, "%s to %s, %d months\n", l.Span.Start, l.Span.End, l.Span.Months)
	fmt.Fprintln(a.out, renderLedger(l, *all))
	return nil
}

func cmdAddComparison(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add-comparison")
	rate := fs.Uint("rate", 0, "yearly growth in percent, 0-255")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *rate > 255 {
		return fmt.Errorf("add-comparison: rate %d out of range", *rate)
	}
	if err := a.depot.AddComparison(ctx, investing.GrowthRate(*rate)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %d%% comparison\n", *rate)
	return nil
}

// Package storage mirrors the depot into a SQL database for reporting.
// The YAML document stays the source of truth.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"finanzbuch/internal/core"
	"finanzbuch/internal/investing"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnknownDriver = errors.New("unknown mirror driver")

type Repository struct {
	db     *sql.DB
	driver string
}

// Open connects to the mirror database and runs pending migrations.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite allows one writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(driver, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, driver: driver}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveEntry replaces the mirrored copy of one entry.
func (r *Repository) SaveEntry(ctx context.Context, key uint64, e *investing.Entry) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return r.saveEntry(ctx, tx, key, e, time.Now().UTC())
	})
}

// DeleteEntry removes an entry with its sections and months.
func (r *Repository) DeleteEntry(ctx context.Context, key uint64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		return r.deleteEntry(ctx, tx, strconv.FormatUint(key, 10))
	})
}

// SaveDepot replaces the whole mirror with depot.
func (r *Repository) SaveDepot(ctx context.Context, depot *investing.Depot) error {
	now := time.Now().UTC()
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"investment_months", "savings_plan_sections", "depot_entries"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for _, key := range depot.Keys() {
			e, _ := depot.GetByKey(key)
			if err := r.saveEntry(ctx, tx, key, e, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Depot mirrored", "entries", depot.Len())
	return nil
}

// LoadDepot rebuilds the depot from the mirror.
func (r *Repository) LoadDepot(ctx context.Context) (*investing.Depot, error) {
	type row struct {
		name     string
		variant  investing.Variant
		sections []investing.Section
		years    map[uint16]*investing.Year
		order    []uint16
	}
	entries := make(map[string]*row)
	var keys []string

	rows, err := r.db.QueryContext(ctx, "SELECT entry_key, name, variant FROM depot_entries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	for rows.Next() {
		var key, name, variant string
		if err := rows.Scan(&key, &name, &variant); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		v, err := investing.ParseVariant(variant)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}
		entries[key] = &row{name: name, variant: v, years: make(map[uint16]*investing.Year)}
		keys = append(keys, key)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		"SELECT entry_key, start_date, end_date, amount, cadence FROM savings_plan_sections ORDER BY entry_key, position")
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	for rows.Next() {
		var (
			key, cadence string
			start, end   int64
			amount       float64
		)
		if err := rows.Scan(&key, &start, &end, &amount, &cadence); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan section: %w", err)
		}
		interval, err := investing.ParseInterval(cadence)
		if err != nil {
			rows.Close()
			return nil, err
		}
		if e, ok := entries[key]; ok {
			e.sections = append(e.sections, investing.Section{
				Start:    core.Date(uint32(start)),
				End:      core.Date(uint32(end)),
				Amount:   amount,
				Interval: interval,
			})
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		"SELECT entry_key, year, month, amount, price_per_unit, additional_transactions FROM investment_months ORDER BY entry_key, year, month")
	if err != nil {
		return nil, fmt.Errorf("query months: %w", err)
	}
	for rows.Next() {
		var (
			key                                  string
			year, month                          int64
			amount, pricePerUnit, additionalTxns float64
		)
		if err := rows.Scan(&key, &year, &month, &amount, &pricePerUnit, &additionalTxns); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan month: %w", err)
		}
		e, ok := entries[key]
		if !ok {
			continue
		}
		y, ok := e.years[uint16(year)]
		if !ok {
			nr := uint16(year)
			fresh := investing.NewYear(nr)
			y = &fresh
			e.years[nr] = y
			e.order = append(e.order, nr)
		}
		m, err := investing.NewMonth(uint8(month), amount, pricePerUnit, additionalTxns)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("entry %q year %d: %w", e.name, year, err)
		}
		y.Months[month-1] = m
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	depot := investing.NewDepot()
	for _, key := range keys {
		e := entries[key]
		years := make([]investing.Year, 0, len(e.order))
		for _, nr := range e.order {
			years = append(years, *e.years[nr])
		}
		entry, err := investing.NewEntryFrom(e.name, e.variant, e.sections, years)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.name, err)
		}
		depot.Add(entry)
	}
	return depot, nil
}

// EntryCount returns the number of mirrored entries.
func (r *Repository) EntryCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM depot_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func (r *Repository) saveEntry(ctx context.Context, tx *sql.Tx, key uint64, e *investing.Entry, now time.Time) error {
	k := strconv.FormatUint(key, 10)
	_, err := tx.ExecContext(ctx, r.rebind(`
		INSERT INTO depot_entries (entry_key, name, variant, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entry_key) DO UPDATE SET
			name = excluded.name,
			variant = excluded.variant,
			updated_at = excluded.updated_at`),
		k, e.Name(), e.Variant.String(), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert entry %q: %w", e.Name(), err)
	}

	for _, table := range []string{"investment_months", "savings_plan_sections"} {
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM "+table+" WHERE entry_key = ?"), k); err != nil {
			return fmt.Errorf("clear %s of %q: %w", table, e.Name(), err)
		}
	}

	for i, s := range e.SavingsPlan() {
		_, err := tx.ExecContext(ctx, r.rebind(`
			INSERT INTO savings_plan_sections (entry_key, position, start_date, end_date, amount, cadence)
			VALUES (?, ?, ?, ?, ?, ?)`),
			k, i, int64(s.Start), int64(s.End), s.Amount, s.Interval.String())
		if err != nil {
			return fmt.Errorf("insert section %s of %q: %w", s, e.Name(), err)
		}
	}

	for _, y := range e.History.All() {
		for _, m := range y.Months {
			_, err := tx.ExecContext(ctx, r.rebind(`
				INSERT INTO investment_months (entry_key, year, month, amount, price_per_unit, additional_transactions)
				VALUES (?, ?, ?, ?, ?, ?)`),
				k, int64(y.Nr), int64(m.Nr()), m.Amount(), m.PricePerUnit(), m.AdditionalTransactions())
			if err != nil {
				return fmt.Errorf("insert month %d-%02d of %q: %w", y.Nr, m.Nr(), e.Name(), err)
			}
		}
	}
	return nil
}

func (r *Repository) deleteEntry(ctx context.Context, tx *sql.Tx, key string) error {
	for _, table := range []string{"investment_months", "savings_plan_sections", "depot_entries"} {
		if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM "+table+" WHERE entry_key = ?"), key); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rebind turns ? placeholders into $1, $2, ... for postgres.
func (r *Repository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	return rows.Close()
}
